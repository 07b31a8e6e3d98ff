package fixer

import (
	"github.com/zricethezav/gitleaks/v8/detect"
	"github.com/zricethezav/gitleaks/v8/config"
)

// SecretFinding is one candidate secret found in a transcript before it is
// backed up or rewritten.
type SecretFinding struct {
	Line        int
	Description string
	Match       string
}

// ScanForSecrets runs gitleaks' detection rules over raw transcript content
// line-by-line, surfacing likely credentials that ended up in a tool_result
// or message body. This never modifies content; it only reports, leaving
// the redaction decision to the caller. No backup or rewrite path in EVS
// calls it.
func ScanForSecrets(lines map[int][]byte) ([]SecretFinding, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, err
	}
	detector := detect.NewDetector(cfg)

	var findings []SecretFinding
	for lineNo, raw := range lines {
		fragment := detect.Fragment{Raw: string(raw)}
		for _, f := range detector.Detect(fragment) {
			findings = append(findings, SecretFinding{
				Line:        lineNo,
				Description: f.Description,
				Match:       f.Match,
			})
		}
	}
	return findings, nil
}
