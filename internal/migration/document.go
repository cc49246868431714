// Package migration upgrades persisted journal documents from older shapes
// to the current one.
//
// Two legacy shapes exist. Matrix keys written before months were tracked are
// a bare day number ("07") and belong to the month the document is loaded
// in. Ideas written before multi-project links carry a nullable "projectId"
// instead of the "projectIds" set.
package migration

import (
	"encoding/json"
	"strings"

	"github.com/ganot/epistles/internal/domain/journal"
)

// rawDocument is the outer shape shared by every document version.
type rawDocument struct {
	Projects []journal.Project `json:"projects"`
	Matrix   map[string]string `json:"matrix"`
	Ideas    []json.RawMessage `json:"ideas"`
}

// ideaShape tags which idea schema a record was written with.
type ideaShape int

const (
	ideaCurrent ideaShape = iota
	ideaSingleProject
)

// ideaV0 is an idea linked to at most one project.
type ideaV0 struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	ProjectID *int64 `json:"projectId"`
	Timestamp int64  `json:"timestamp"`
}

func (v ideaV0) upgrade() journal.Idea {
	ids := []int64{}
	if v.ProjectID != nil {
		ids = append(ids, *v.ProjectID)
	}
	return journal.Idea{
		ID:         v.ID,
		Text:       v.Text,
		ProjectIDs: ids,
		Timestamp:  v.Timestamp,
		Hidden:     false,
	}
}

// ideaV1 is the current idea shape; Hidden may be absent.
type ideaV1 struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	ProjectIDs []int64 `json:"projectIds"`
	Timestamp  int64   `json:"timestamp"`
	Hidden     *bool   `json:"hidden"`
}

func (v ideaV1) upgrade() journal.Idea {
	ids := v.ProjectIDs
	if ids == nil {
		ids = []int64{}
	}
	return journal.Idea{
		ID:         v.ID,
		Text:       v.Text,
		ProjectIDs: ids,
		Timestamp:  v.Timestamp,
		Hidden:     v.Hidden != nil && *v.Hidden,
	}
}

// classifyIdea reports the schema of one raw idea record. Presence of the
// "projectId" key, even as null, marks the single-project shape.
func classifyIdea(raw json.RawMessage) (ideaShape, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ideaCurrent, err
	}
	if _, ok := fields["projectId"]; ok {
		return ideaSingleProject, nil
	}
	return ideaCurrent, nil
}

// keyShape tags which matrix key schema a key was written with.
type keyShape int

const (
	keyDated keyShape = iota
	keyBareDay
)

func classifyKey(key string) keyShape {
	if strings.HasPrefix(key, "20") {
		return keyDated
	}
	return keyBareDay
}

// upgradeKey places a bare-day key into month, left-padding it to two digits.
func upgradeKey(key, month string) string {
	if len(key) < 2 {
		key = strings.Repeat("0", 2-len(key)) + key
	}
	return month + "-" + key
}
