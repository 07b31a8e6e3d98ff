// Package runid derives supervised-run identifiers that disambiguate
// across machines sharing one $HOME (a synced dotfiles repo, an NFS-mounted
// home directory): a run id is <machine-id-prefix>-<uuid>, so two
// concurrently supervised runs on different hosts never collide in
// <evs-root>/active/ even if their UUIDs were somehow predictable.
package runid

import (
	"fmt"

	"github.com/denisbrodbeck/machineid"
	"github.com/google/uuid"
)

// appID salts machineid.ProtectedID so the derived id can't be correlated
// with other applications' use of the same machine id.
const appID = "eversession"

// machineIDPrefixLen bounds how much of the protected machine id ends up
// in a world-readable active-run filename — just enough to disambiguate
// hosts, not a full fingerprint.
const machineIDPrefixLen = 8

// New returns a fresh run id: <machine-id-prefix>-<uuid>. If the machine id
// can't be read (containers without the usual OS identifiers, permission
// issues), it falls back to a bare uuid rather than failing the run.
func New() string {
	id, err := machineid.ProtectedID(appID)
	if err != nil || id == "" {
		return uuid.NewString()
	}
	return fmt.Sprintf("%s-%s", shortHash(id), uuid.NewString())
}

// shortHash truncates the (already HMAC-protected) machine id to a short
// prefix so the active-run filename carries just enough entropy to
// disambiguate hosts.
func shortHash(machineID string) string {
	if len(machineID) <= machineIDPrefixLen {
		return machineID
	}
	return machineID[:machineIDPrefixLen]
}
