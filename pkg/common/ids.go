package common

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idLength = 16

// Prefixed public identifiers. The prefix makes the entity kind readable in
// logs and API payloads without a lookup.
func NewNodeID() (string, error)     { return prefixedID("nd") }
func NewEdgeID() (string, error)     { return prefixedID("ed") }
func NewSnapshotID() (string, error) { return prefixedID("sn") }
func NewAuditID() (string, error)    { return prefixedID("au") }

func prefixedID(prefix string) (string, error) {
	id, err := gonanoid.New(idLength)
	if err != nil {
		return "", err
	}
	return prefix + "_" + id, nil
}
