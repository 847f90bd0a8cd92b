// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"io"
	"slices"

	"github.com/bureau-foundation/execpolicy/lib/binhash"
	"github.com/bureau-foundation/execpolicy/lib/codec"
	"github.com/bureau-foundation/execpolicy/lib/trust"
)

// Snapshot is the deployable part of a State: what would be written
// back to the daemon's configuration.
type Snapshot struct {
	// Rules is the rules file text.
	Rules string `cbor:"rules" json:"rules"`

	// Ancillary holds the ancillary trust declarations sorted by path.
	Ancillary []trust.Trust `cbor:"ancillary" json:"ancillary"`

	// DaemonVersion is the daemon version the state was loaded
	// against, "unknown" when it could not be determined.
	DaemonVersion string `cbor:"daemon_version" json:"daemon_version"`

	// Fingerprints are the source fingerprints at load time, keyed by
	// path.
	Fingerprints map[string]binhash.Fingerprint `cbor:"fingerprints,omitempty" json:"fingerprints,omitempty"`
}

// Snapshot captures the deployable parts of the state.
func (state *State) Snapshot() Snapshot {
	ancillary := state.AncillaryTrust()
	declarations := make([]trust.Trust, len(ancillary))
	for i, record := range ancillary {
		declarations[i] = record.Trust
	}
	return Snapshot{
		Rules:         state.rulesDB.Text(),
		Ancillary:     declarations,
		DaemonVersion: state.daemonVersion.String(),
		Fingerprints:  state.Fingerprints(),
	}
}

// TrustFile renders the ancillary declarations in trust file form.
func (snapshot Snapshot) TrustFile() string {
	records := make([]trust.Record, len(snapshot.Ancillary))
	for i, declaration := range snapshot.Ancillary {
		records[i] = trust.Record{Trust: declaration, Origin: trust.OriginAncillary}
	}
	return trust.FormatTrustFile(records)
}

// Changed returns, sorted, the fingerprinted source files whose
// content on disk no longer matches the snapshot. A file that cannot be
// read counts as the zero fingerprint.
func (snapshot Snapshot) Changed() []string {
	var changed []string
	for path, fingerprint := range snapshot.Fingerprints {
		current, _ := binhash.FingerprintFile(path)
		if current != fingerprint {
			changed = append(changed, path)
		}
	}
	slices.Sort(changed)
	return changed
}

// WriteSnapshot writes the state's snapshot to writer as deterministic
// CBOR. Equal states produce identical bytes.
func (state *State) WriteSnapshot(writer io.Writer) error {
	if err := codec.WriteDocument(writer, state.Snapshot()); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a snapshot written by [State.WriteSnapshot].
func ReadSnapshot(reader io.Reader) (Snapshot, error) {
	var snapshot Snapshot
	if err := codec.ReadDocument(reader, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return snapshot, nil
}
