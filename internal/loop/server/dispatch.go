package server

import (
	"errors"
	"fmt"
	"math"

	"github.com/tomz197/hopline/internal/loop"
	"github.com/tomz197/hopline/internal/pose"
	"github.com/tomz197/hopline/internal/protocol"
)

// controller is the part of loop.Driver the read loop drives.
type controller interface {
	Keypoints(points []pose.Keypoint)
	ManualJump(pressed bool)
	Visibility(visible bool)
	Pause()
	Resume()
	Reset()
	StartCalibration()
	FinishCalibration(force bool)
	OverrideBaseline(baseline float64)
	CaptureFailed(err error)
	SelectSource(s loop.JumpSource)
}

var _ controller = (*loop.Driver)(nil)

// ErrCaptureFailed wraps the reason a browser gave for losing its camera.
var ErrCaptureFailed = errors.New("capture failed")

// dispatch applies one inbound envelope to the session.
func dispatch(c controller, env protocol.Envelope) error {
	switch env.T {
	case protocol.MsgKeypoints:
		kp, err := protocol.DecodePayload[protocol.Keypoints](env)
		if err != nil {
			return err
		}
		c.Keypoints(kp.Points)
	case protocol.MsgJump:
		j, err := protocol.DecodePayload[protocol.Jump](env)
		if err != nil {
			return err
		}
		c.ManualJump(j.Pressed)
	case protocol.MsgVisibility:
		v, err := protocol.DecodePayload[protocol.Visibility](env)
		if err != nil {
			return err
		}
		c.Visibility(v.Visible)
	case protocol.MsgPause:
		c.Pause()
	case protocol.MsgResume:
		c.Resume()
	case protocol.MsgReset:
		c.Reset()
	case protocol.MsgCalibrate:
		c.StartCalibration()
	case protocol.MsgCalibrateFinish:
		var f protocol.CalibrateFinish
		if len(env.P) > 0 {
			var err error
			if f, err = protocol.DecodePayload[protocol.CalibrateFinish](env); err != nil {
				return err
			}
		}
		c.FinishCalibration(f.Force)
	case protocol.MsgOverride:
		o, err := protocol.DecodePayload[protocol.Override](env)
		if err != nil {
			return err
		}
		if o.Baseline <= 0 || math.IsNaN(o.Baseline) || math.IsInf(o.Baseline, 0) {
			return fmt.Errorf("override: invalid baseline %v", o.Baseline)
		}
		c.OverrideBaseline(o.Baseline)
	case protocol.MsgCaptureError:
		ce, err := protocol.DecodePayload[protocol.CaptureError](env)
		if err != nil {
			return err
		}
		c.CaptureFailed(fmt.Errorf("%w: %s", ErrCaptureFailed, ce.Message))
	case protocol.MsgSelectSource:
		src, err := protocol.DecodePayload[protocol.Source](env)
		if err != nil {
			return err
		}
		js, err := loop.ParseJumpSource(src.Source)
		if err != nil {
			return err
		}
		c.SelectSource(js)
	default:
		return fmt.Errorf("%w: %q", protocol.ErrUnknownMessage, env.T)
	}
	return nil
}

// eventMessage maps a driver event to an outbound message.
func eventMessage(ev loop.Event) (string, any) {
	switch ev.Type {
	case loop.EventCalibrationPhase:
		return protocol.MsgCalibration, protocol.Calibration{Phase: ev.Phase.String()}
	case loop.EventCalibrated:
		return protocol.MsgCalibration, protocol.Calibration{
			Phase:            "done",
			Baseline:         ev.Calibration.Baseline,
			AverageAmplitude: ev.Calibration.AverageAmplitude,
		}
	case loop.EventCalibrationFailed:
		return protocol.MsgCalibration, protocol.Calibration{Phase: "failed", Error: errString(ev.Err)}
	case loop.EventGameOver:
		return protocol.MsgGameOver, protocol.GameOver{Score: ev.Score}
	case loop.EventSourceChanged:
		return protocol.MsgSource, protocol.Source{Source: ev.Source.String(), Reason: errString(ev.Err)}
	default:
		return protocol.MsgError, protocol.Error{Message: fmt.Sprintf("unhandled event %d", ev.Type)}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
