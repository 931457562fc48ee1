package server

import "daemonfield/session"

// configDTO is the JSON wire shape of session.Config, matching the
// configuration knobs named in spec.md §6: width, height, mask, balance,
// balance_mode, rule, fps, steps_per_tick.
type configDTO struct {
	Width        int      `json:"width"`
	Height       int      `json:"height"`
	Mask         string   `json:"mask"`
	Balance      *float64 `json:"balance,omitempty"`
	BalanceMode  string   `json:"balance_mode"`
	Rule         int      `json:"rule,omitempty"`
	FPS          int      `json:"fps"`
	StepsPerTick int      `json:"steps_per_tick"`
}

func (d configDTO) toSessionConfig() session.Config {
	return session.Config{
		Width:        d.Width,
		Height:       d.Height,
		Mask:         d.Mask,
		Balance:      d.Balance,
		BalanceMode:  d.BalanceMode,
		Rule:         d.Rule,
		FPS:          d.FPS,
		StepsPerTick: d.StepsPerTick,
	}
}

// cellDTO is one grid coordinate in a paint action.
type cellDTO struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// actionRequest is the client -> server message shape: a dispatch
// envelope whose fields are interpreted according to Action, mirroring
// ExperimentSession.handle_message's dispatch table.
type actionRequest struct {
	Action string `json:"action"`

	// start / reconnect
	Config *configDTO `json:"config,omitempty"`

	// click / inspect
	X int `json:"x,omitempty"`
	Y int `json:"y,omitempty"`

	// paint
	Cells []cellDTO `json:"cells,omitempty"`
	Value float64   `json:"value,omitempty"`

	// step
	N int `json:"n,omitempty"`

	// play
	FPS          int `json:"fps,omitempty"`
	StepsPerTick int `json:"steps_per_tick,omitempty"`
}

// statusMessage reports a session lifecycle transition.
type statusMessage struct {
	Type  string `json:"type"`
	State string `json:"state"`
}

// frameMessage carries one emitted grid snapshot with metrics.
type frameMessage struct {
	Type       string      `json:"type"`
	Generation int         `json:"generation"`
	Grid       [][]int     `json:"grid"`
	Stats      statsDTO    `json:"stats"`
	Perf       *perfDTO    `json:"perf,omitempty"`
}

type statsDTO struct {
	ActiveCells   int     `json:"active_cells"`
	DaemonCount   int     `json:"daemon_count"`
	AvgDaemonSize float64 `json:"avg_daemon_size"`
	NoiseCells    int     `json:"noise_cells"`
	Exclusion     float64 `json:"exclusion"`
	Stability     float64 `json:"stability"`
	Steps         int     `json:"steps"`
}

type perfDTO struct {
	Steps          int     `json:"steps"`
	ElapsedMs      float64 `json:"elapsed_ms"`
	StepsPerSecond float64 `json:"steps_per_second"`
}

func toFrameMessage(f session.Frame) frameMessage {
	msg := frameMessage{
		Type:       "frame",
		Generation: f.Generation,
		Grid:       f.Grid,
		Stats: statsDTO{
			ActiveCells:   f.Stats.ActiveCells,
			DaemonCount:   f.Stats.DaemonCount,
			AvgDaemonSize: f.Stats.AvgDaemonSize,
			NoiseCells:    f.Stats.NoiseCells,
			Exclusion:     f.Stats.Exclusion,
			Stability:     f.Stats.Stability,
			Steps:         f.Stats.Steps,
		},
	}
	if f.Perf != nil {
		msg.Perf = &perfDTO{
			Steps:          f.Perf.Steps,
			ElapsedMs:      f.Perf.ElapsedMs,
			StepsPerSecond: f.Perf.StepsPerSecond,
		}
	}
	return msg
}

// connectionsMessage is the response to an inspect action.
type connectionsMessage struct {
	Type           string       `json:"type"`
	X              int          `json:"x"`
	Y              int          `json:"y"`
	TotalDendritas int          `json:"total_dendritas"`
	TotalSinapsis  int          `json:"total_sinapsis"`
	WeightGrid     [][]*float64 `json:"weight_grid"`
}

// errorMessage reports a failed action; the session remains usable.
type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newErrorMessage(err error) errorMessage {
	return errorMessage{Type: "error", Message: err.Error()}
}
