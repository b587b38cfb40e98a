package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/displaysnap/internal/display"
)

// SetState applies the requested state to one output via RandR. Disabling
// detaches the output's CRTC; enabling picks the best matching mode, finds a
// CRTC, grows the screen if the placement requires it and attaches the
// output. The call blocks while the monitor re-syncs.
func (b *Backend) SetState(req display.Request) error {
	c := b.conn.XUtil.Conn()

	res, err := randr.GetScreenResourcesCurrent(c, b.conn.Root).Reply()
	if err != nil {
		return fmt.Errorf("get screen resources: %w", err)
	}

	output, info, err := b.resolveOutput(res, req.Identity)
	if err != nil {
		return err
	}

	if !req.Enabled {
		return b.disableOutput(res, info, req.Identity)
	}

	mode, modeInfo, ok := bestMode(res, info, req.Mode)
	if !ok {
		return fmt.Errorf("output %s has no usable modes", req.Identity)
	}

	crtc, err := b.pickCrtc(res, info)
	if err != nil {
		return err
	}

	if err := b.growScreen(req.X+int(modeInfo.Width), req.Y+int(modeInfo.Height)); err != nil {
		return err
	}

	reply, err := randr.SetCrtcConfig(c, crtc,
		xproto.TimeCurrentTime, res.ConfigTimestamp,
		int16(req.X), int16(req.Y), mode, randr.RotationRotate0,
		[]randr.Output{output}).Reply()
	if err != nil {
		return fmt.Errorf("set crtc config for %s: %w", req.Identity, err)
	}
	if reply.Status != randr.SetConfigSuccess {
		return fmt.Errorf("set crtc config for %s rejected: %s", req.Identity, configStatus(reply.Status))
	}

	if req.Primary {
		if err := randr.SetOutputPrimaryChecked(c, b.conn.Root, output).Check(); err != nil {
			return fmt.Errorf("set primary %s: %w", req.Identity, err)
		}
	}

	return nil
}

// resolveOutput finds the RandR output for an identity: exact name first,
// adapter ordinal as fallback.
func (b *Backend) resolveOutput(res *randr.GetScreenResourcesCurrentReply, id display.Identity) (randr.Output, *randr.GetOutputInfoReply, error) {
	c := b.conn.XUtil.Conn()

	var byIndex randr.Output
	var byIndexInfo *randr.GetOutputInfoReply

	for i, output := range res.Outputs {
		info, err := randr.GetOutputInfo(c, output, res.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if string(info.Name) == id.DevicePath {
			return output, info, nil
		}
		if i == id.Index && info.Connection == randr.ConnectionConnected {
			byIndex = output
			byIndexInfo = info
		}
	}

	if byIndexInfo != nil {
		return byIndex, byIndexInfo, nil
	}
	return 0, nil, fmt.Errorf("output %s not found", id)
}

func (b *Backend) disableOutput(res *randr.GetScreenResourcesCurrentReply, info *randr.GetOutputInfoReply, id display.Identity) error {
	if info.Crtc == 0 {
		return nil // already detached
	}
	reply, err := randr.SetCrtcConfig(b.conn.XUtil.Conn(), info.Crtc,
		xproto.TimeCurrentTime, res.ConfigTimestamp,
		0, 0, 0, randr.RotationRotate0, nil).Reply()
	if err != nil {
		return fmt.Errorf("disable %s: %w", id, err)
	}
	if reply.Status != randr.SetConfigSuccess {
		return fmt.Errorf("disable %s rejected: %s", id, configStatus(reply.Status))
	}
	return nil
}

// pickCrtc returns the output's current CRTC, or a free one it can drive.
func (b *Backend) pickCrtc(res *randr.GetScreenResourcesCurrentReply, info *randr.GetOutputInfoReply) (randr.Crtc, error) {
	if info.Crtc != 0 {
		return info.Crtc, nil
	}

	c := b.conn.XUtil.Conn()
	for _, crtc := range info.Crtcs {
		ci, err := randr.GetCrtcInfo(c, crtc, res.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if len(ci.Outputs) == 0 {
			return crtc, nil
		}
	}
	return 0, fmt.Errorf("no free crtc for output %s", info.Name)
}

// growScreen enlarges the X screen when a placement extends past its current
// bounds. Shrinking is left to the server; an oversized screen is harmless
// while an undersized one makes SetCrtcConfig fail.
func (b *Backend) growScreen(needW, needH int) error {
	screen := b.conn.XUtil.Screen()
	curW := int(screen.WidthInPixels)
	curH := int(screen.HeightInPixels)
	if needW <= curW && needH <= curH {
		return nil
	}

	w, h := maxInt(needW, curW), maxInt(needH, curH)
	// Keep physical size proportional at the standard 96 DPI assumption.
	mmW := uint32(float64(w) * 25.4 / 96.0)
	mmH := uint32(float64(h) * 25.4 / 96.0)

	if err := randr.SetScreenSizeChecked(b.conn.XUtil.Conn(), b.conn.Root,
		uint16(w), uint16(h), mmW, mmH).Check(); err != nil {
		return fmt.Errorf("grow screen to %dx%d: %w", w, h, err)
	}
	return nil
}

// bestMode picks the output mode closest to the target: exact resolution
// with the nearest refresh wins; otherwise the highest-resolution mode is
// used as a fallback (the saved mode may not exist on a different cable or
// GPU).
func bestMode(res *randr.GetScreenResourcesCurrentReply, info *randr.GetOutputInfoReply, target display.Mode) (randr.Mode, randr.ModeInfo, bool) {
	var (
		best        randr.Mode
		bestInfo    randr.ModeInfo
		bestScore   = -1
		highest     randr.Mode
		highestInfo randr.ModeInfo
		highestPx   = -1
	)

	for _, id := range info.Modes {
		var mi randr.ModeInfo
		found := false
		for _, m := range res.Modes {
			if randr.Mode(m.Id) == id {
				mi, found = m, true
				break
			}
		}
		if !found {
			continue
		}

		px := int(mi.Width) * int(mi.Height)
		if px > highestPx {
			highestPx = px
			highest = id
			highestInfo = mi
		}

		if int(mi.Width) != target.Width || int(mi.Height) != target.Height {
			continue
		}
		score := 1000
		delta := refreshRate(mi) - target.RefreshHz
		if delta < 0 {
			delta = -delta
		}
		if delta == 0 {
			score += 100
		} else {
			score += maxInt(0, 50-delta)
		}
		if score > bestScore {
			bestScore = score
			best = id
			bestInfo = mi
		}
	}

	if bestScore >= 0 {
		return best, bestInfo, true
	}
	if highestPx >= 0 {
		return highest, highestInfo, true
	}
	return 0, randr.ModeInfo{}, false
}

func configStatus(status byte) string {
	switch status {
	case randr.SetConfigSuccess:
		return "success"
	case randr.SetConfigInvalidConfigTime:
		return "invalid config time"
	case randr.SetConfigInvalidTime:
		return "invalid time"
	case randr.SetConfigFailed:
		return "failed"
	default:
		return fmt.Sprintf("status %d", status)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
