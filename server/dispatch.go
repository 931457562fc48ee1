package server

import (
	"errors"
	"fmt"

	"daemonfield/session"
)

// dispatch applies one actionRequest to entry's Controller and returns the
// wire message(s) to send back, mirroring ExperimentSession.handle_message's
// action table (spec.md §4.5). A play request also arms entry's autoplay
// sink so subsequent frames land on the event queue for the frames poll
// endpoint to pick up.
func dispatch(entry *sessionEntry, sessionID string, req actionRequest, logger *loggerHook) []any {
	switch req.Action {
	case "start":
		if req.Config == nil {
			return []any{newErrorMessage(errors.New("start requires a config"))}
		}
		cfg := req.Config.toSessionConfig()
		frame, err := entry.ctrl.Start(cfg)
		if err != nil {
			return []any{newErrorMessage(err)}
		}
		logger.logStart(sessionID, cfg)
		logger.logFrame(sessionID, frame)
		return []any{statusMessage{Type: "status", State: "ready"}, toFrameMessage(frame)}

	case "click":
		frame, err := entry.ctrl.Click(req.X, req.Y)
		return frameOrError(frame, err, logger, sessionID)

	case "paint":
		cells := make([]session.Cell, len(req.Cells))
		for i, c := range req.Cells {
			cells[i] = session.Cell{X: c.X, Y: c.Y}
		}
		frame, err := entry.ctrl.Paint(cells, req.Value)
		return frameOrError(frame, err, logger, sessionID)

	case "step":
		frame, err := entry.ctrl.Step(req.N)
		return frameOrError(frame, err, logger, sessionID)

	case "play":
		err := entry.ctrl.Play(req.FPS, req.StepsPerTick, func(frame session.Frame, playErr error) {
			if playErr != nil {
				entry.publish(newErrorMessage(playErr))
				return
			}
			logger.logFrame(sessionID, frame)
			entry.publish(toFrameMessage(frame))
		})
		if err != nil {
			return []any{newErrorMessage(err)}
		}
		return []any{statusMessage{Type: "status", State: "running"}}

	case "pause":
		entry.ctrl.Pause()
		return []any{statusMessage{Type: "status", State: "paused"}}

	case "reset":
		frame, err := entry.ctrl.Reset()
		return frameOrError(frame, err, logger, sessionID)

	case "reconnect":
		if req.Config == nil {
			return []any{newErrorMessage(errors.New("reconnect requires a config"))}
		}
		frame, err := entry.ctrl.Reconnect(session.ReconnectRequest{
			Mask:        req.Config.Mask,
			Balance:     req.Config.Balance,
			BalanceMode: req.Config.BalanceMode,
		})
		return frameOrError(frame, err, logger, sessionID)

	case "inspect":
		result, err := entry.ctrl.Inspect(req.X, req.Y)
		if err != nil {
			return []any{newErrorMessage(err)}
		}
		return []any{connectionsMessage{
			Type:           "connections",
			X:              result.X,
			Y:              result.Y,
			TotalDendritas: result.TotalDendrites,
			TotalSinapsis:  result.TotalSynapses,
			WeightGrid:     result.WeightGrid,
		}}

	default:
		return []any{newErrorMessage(fmt.Errorf("unknown action %q", req.Action))}
	}
}

func frameOrError(frame session.Frame, err error, logger *loggerHook, sessionID string) []any {
	if err != nil {
		return []any{newErrorMessage(err)}
	}
	logger.logFrame(sessionID, frame)
	return []any{toFrameMessage(frame)}
}
