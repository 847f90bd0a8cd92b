// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/execpolicy/lib/app"
	"github.com/bureau-foundation/execpolicy/lib/codec"
	"github.com/bureau-foundation/execpolicy/lib/rules"
	"github.com/bureau-foundation/execpolicy/lib/trust"
)

// sessionFile is the on-disk form of a list of changes.
type sessionFile struct {
	Changes []changeRecord `json:"changes" cbor:"changes"`
}

type changeRecord struct {
	Kind   ChangeKind `json:"kind" cbor:"kind"`
	Origin string     `json:"origin,omitempty" cbor:"origin,omitempty"`
	Ops    []opRecord `json:"ops" cbor:"ops"`
}

// opRecord holds the fields of both trust and rules operations. The
// enclosing change's kind decides how Kind is read.
type opRecord struct {
	Kind  string       `json:"kind" cbor:"kind"`
	Path  string       `json:"path,omitempty" cbor:"path,omitempty"`
	Trust *trust.Trust `json:"trust,omitempty" cbor:"trust,omitempty"`
	ID    int          `json:"id,omitempty" cbor:"id,omitempty"`
	Text  string       `json:"text,omitempty" cbor:"text,omitempty"`
}

func encodeChanges(changes []Change) (sessionFile, error) {
	file := sessionFile{Changes: make([]changeRecord, 0, len(changes))}
	for index, change := range changes {
		record := changeRecord{Kind: change.Kind()}
		switch record.Kind {
		case ChangeTrust:
			record.Origin = change.Trust.Origin().String()
			for _, op := range change.Trust.Ops() {
				encoded := opRecord{Kind: op.Kind.String(), Path: op.Path, Text: op.Text}
				if op.Kind == trust.OpAdd {
					declaration := op.Trust
					encoded.Trust = &declaration
				}
				record.Ops = append(record.Ops, encoded)
			}
		case ChangeRules:
			for _, op := range change.Rules.Ops() {
				record.Ops = append(record.Ops, opRecord{Kind: op.Kind.String(), ID: op.ID, Text: op.Text})
			}
		default:
			return sessionFile{}, fmt.Errorf("change %d is empty", index)
		}
		if record.Ops == nil {
			record.Ops = []opRecord{}
		}
		file.Changes = append(file.Changes, record)
	}
	return file, nil
}

func decodeChanges(file sessionFile) ([]Change, error) {
	changes := make([]Change, 0, len(file.Changes))
	for index, record := range file.Changes {
		switch record.Kind {
		case ChangeTrust:
			origin, err := trust.ParseOrigin(record.Origin)
			if err != nil {
				return nil, fmt.Errorf("change %d: %w", index, err)
			}
			changeset := trust.NewChangeset(origin)
			for opIndex, encoded := range record.Ops {
				var kind trust.OpKind
				if err := kind.UnmarshalText([]byte(encoded.Kind)); err != nil {
					return nil, fmt.Errorf("change %d op %d: %w", index, opIndex, err)
				}
				switch kind {
				case trust.OpAdd:
					if encoded.Trust == nil {
						return nil, fmt.Errorf("change %d op %d: add without trust", index, opIndex)
					}
					changeset.Add(trust.New(encoded.Trust.Path, encoded.Trust.Size, encoded.Trust.Hash))
				case trust.OpRemove:
					changeset.Remove(encoded.Path)
				case trust.OpNote:
					changeset.Note(encoded.Text)
				}
			}
			changes = append(changes, TrustChange(changeset))
		case ChangeRules:
			ops := make([]rules.Op, 0, len(record.Ops))
			for opIndex, encoded := range record.Ops {
				var kind rules.OpKind
				if err := kind.UnmarshalText([]byte(encoded.Kind)); err != nil {
					return nil, fmt.Errorf("change %d op %d: %w", index, opIndex, err)
				}
				ops = append(ops, rules.Op{Kind: kind, ID: encoded.ID, Text: encoded.Text})
			}
			changes = append(changes, RuleChange(rules.NewChangeset(ops...)))
		default:
			return nil, fmt.Errorf("change %d has no kind", index)
		}
	}
	return changes, nil
}

func isCBOR(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".cbor")
}

// WriteChanges writes changes to a session file at path.
func WriteChanges(path string, changes []Change) error {
	file, err := encodeChanges(changes)
	if err != nil {
		return err
	}

	var data []byte
	if isCBOR(path) {
		data, err = codec.MarshalDocument(file)
	} else {
		data, err = json.MarshalIndent(file, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if !isCBOR(path) {
		data = append(data, '\n')
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// ReadChanges reads the changes stored in the session file at path.
// The format is detected from content, not the extension.
func ReadChanges(path string) ([]Change, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var file sessionFile
	if codec.IsDocument(data) {
		err = codec.UnmarshalDocument(data, &file)
	} else {
		err = json.Unmarshal(jsonc.ToJSON(data), &file)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing session %s: %w", path, err)
	}

	changes, err := decodeChanges(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return changes, nil
}

// Save writes the pending changes to path.
func (session *Session) Save(path string) error {
	if err := WriteChanges(path, session.Pending()); err != nil {
		return err
	}
	session.options.Logger.Info("session saved", "path", path, "changes", session.position)
	return nil
}

// Open replays the changes in the session file at path onto base and
// returns a session holding them as pending.
func Open(path string, base *app.State, options Options) (*Session, error) {
	changes, err := ReadChanges(path)
	if err != nil {
		return nil, err
	}
	return replay(base, changes, options)
}

func replay(base *app.State, changes []Change, options Options) (*Session, error) {
	autosave := options.Autosave
	options.Autosave = false
	session := New(base, options)
	for index, change := range changes {
		if err := session.Apply(change); err != nil {
			return nil, fmt.Errorf("replaying change %d: %w", index, err)
		}
	}
	session.options.Autosave = autosave
	return session, nil
}
