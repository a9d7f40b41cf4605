package drift

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// scriptStep is a single action in a stage script.
type scriptStep struct {
	Action string `yaml:"action"`
	Label  string `yaml:"label,omitempty"`
	Frames int    `yaml:"frames,omitempty"`
}

type script struct {
	Steps []scriptStep `yaml:"steps"`
}

// ScriptRunner plays a scripted sequence of waits, screenshots and named
// actions against a Stage, one step per tick. It is used for unattended
// capture runs of the examples. Attach it with Stage.SetScript.
//
// Built-in actions are "wait" (Frames ticks) and "screenshot" (Label).
// Any other action runs the handler registered under that name with Handle.
type ScriptRunner struct {
	steps     []scriptStep
	handlers  map[string]func()
	cursor    int
	waitCount int
	done      bool
}

// LoadScript parses a YAML (or JSON) script.
func LoadScript(data []byte) (*ScriptRunner, error) {
	var sc script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("drift: parse script: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("drift: parse script: no steps")
	}
	for i, st := range sc.Steps {
		if st.Action == "" {
			return nil, fmt.Errorf("drift: parse script: step %d has no action", i)
		}
	}
	return &ScriptRunner{steps: sc.Steps, handlers: make(map[string]func())}, nil
}

// Handle registers fn as the handler for action.
func (r *ScriptRunner) Handle(action string, fn func()) {
	r.handlers[action] = fn
}

// Done reports whether every step has run.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// SetScript attaches r to the stage. Update steps it before the clock ticks.
func (s *Stage) SetScript(r *ScriptRunner) {
	s.script = r
}

// step advances the runner by one tick.
func (r *ScriptRunner) step(s *Stage) {
	if r.done {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "screenshot":
		s.Screenshot(st.Label)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this tick counts as one
		}
	default:
		if fn, ok := r.handlers[st.Action]; ok {
			fn()
		} else {
			logger.Warn("script action has no handler", zap.String("action", st.Action))
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
}
