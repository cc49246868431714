package migration

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ganot/epistles/internal/clock"
	"github.com/ganot/epistles/internal/domain/journal"
)

// ErrMalformed indicates a document that is not valid JSON of the expected shape.
var ErrMalformed = errors.New("malformed journal document")

// Engine implements journal.Upgrader.
type Engine struct{}

// New returns a migration engine.
func New() Engine {
	return Engine{}
}

var _ journal.Upgrader = Engine{}

// Upgrade decodes blob and rewrites legacy matrix keys and idea records into
// the current shape. Bare-day matrix keys are placed in the month of now.
// Upgrading a current document returns it unchanged.
func (Engine) Upgrade(blob []byte, now time.Time) (journal.State, journal.UpgradeReport, error) {
	doc, err := decode(blob)
	if err != nil {
		return journal.State{}, journal.UpgradeReport{}, err
	}

	var report journal.UpgradeReport
	month := clock.Month(now)

	matrix := make(journal.Matrix, len(doc.Matrix))
	for key, val := range doc.Matrix {
		if classifyKey(key) == keyDated {
			matrix[key] = val
		}
	}
	for key, val := range doc.Matrix {
		if classifyKey(key) != keyBareDay {
			continue
		}
		report.MatrixKeys++
		upgraded := upgradeKey(key, month)
		if _, taken := matrix[upgraded]; taken {
			continue
		}
		matrix[upgraded] = val
	}

	ideas := make([]journal.Idea, 0, len(doc.Ideas))
	for i, raw := range doc.Ideas {
		idea, legacy, err := upgradeIdea(raw)
		if err != nil {
			return journal.State{}, journal.UpgradeReport{}, fmt.Errorf("%w: idea %d: %v", ErrMalformed, i, err)
		}
		if legacy {
			report.Ideas++
		}
		ideas = append(ideas, idea)
	}

	projects := doc.Projects
	if projects == nil {
		projects = []journal.Project{}
	}

	return journal.State{Projects: projects, Matrix: matrix, Ideas: ideas}, report, nil
}

// Inspect counts the legacy shapes in blob without converting it.
func (Engine) Inspect(blob []byte) (journal.UpgradeReport, error) {
	doc, err := decode(blob)
	if err != nil {
		return journal.UpgradeReport{}, err
	}
	var report journal.UpgradeReport
	for key := range doc.Matrix {
		if classifyKey(key) == keyBareDay {
			report.MatrixKeys++
		}
	}
	for _, raw := range doc.Ideas {
		shape, err := classifyIdea(raw)
		if err != nil {
			return journal.UpgradeReport{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if shape == ideaSingleProject {
			report.Ideas++
		}
	}
	return report, nil
}

func decode(blob []byte) (rawDocument, error) {
	var doc rawDocument
	if err := json.Unmarshal(blob, &doc); err != nil {
		return rawDocument{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return doc, nil
}

func upgradeIdea(raw json.RawMessage) (journal.Idea, bool, error) {
	shape, err := classifyIdea(raw)
	if err != nil {
		return journal.Idea{}, false, err
	}
	switch shape {
	case ideaSingleProject:
		var v ideaV0
		if err := json.Unmarshal(raw, &v); err != nil {
			return journal.Idea{}, false, err
		}
		return v.upgrade(), true, nil
	default:
		var v ideaV1
		if err := json.Unmarshal(raw, &v); err != nil {
			return journal.Idea{}, false, err
		}
		return v.upgrade(), false, nil
	}
}
