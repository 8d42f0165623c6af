package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/studybot/pkg/models"
)

// Export serializes every plan in the browser backup format
func (p *Planner) Export() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := json.MarshalIndent(p.state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %v", err)
	}
	return data, nil
}

// Import replaces every plan with the content of a backup. Malformed data
// or a backup without plans is rejected with ErrInvalidBackup and the
// current state is kept.
func (p *Planner) Import(ctx context.Context, data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if _, ok := raw["plans"]; !ok {
		return ErrInvalidBackup
	}

	var st models.PlanState
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if len(st.Plans) == 0 {
		return ErrInvalidBackup
	}
	if _, ok := st.Plan(st.CurrentPlanID); !ok {
		st.CurrentPlanID = st.Plans[0].ID
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.commitLocked(ctx, st)
	log.Printf("Imported %d plans for user %s", len(st.Plans), p.userID)
	return nil
}
