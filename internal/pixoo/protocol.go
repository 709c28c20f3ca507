// Package pixoo mirrors the glucose trend chart to a Pixoo64 LED display.
//
// The Pixoo64 has a local HTTP API at port 80.
// Endpoint: POST http://<ip>/post
//
// Frame format:
// - 64x64 pixels
// - RGB (3 bytes per pixel)
// - Base64 encoded
package pixoo

import (
	"encoding/base64"

	"github.com/jwulff/glucotrack/internal/domain"
)

// PixooCommand represents a Pixoo API command without arguments.
type PixooCommand struct {
	Command string `json:"Command"`
}

// FrameCommand represents a Draw/SendHttpGif command.
type FrameCommand struct {
	Command   string `json:"Command"`
	PicNum    int    `json:"PicNum"`
	PicWidth  int    `json:"PicWidth"`
	PicOffset int    `json:"PicOffset"`
	PicID     int    `json:"PicID"`
	PicSpeed  int    `json:"PicSpeed"`
	PicData   string `json:"PicData"`
}

// BrightnessCommand represents a Channel/SetBrightness command.
type BrightnessCommand struct {
	Command    string `json:"Command"`
	Brightness int    `json:"Brightness"`
}

// Response is the envelope every command answers with.
type Response struct {
	ErrorCode int `json:"error_code"`
}

// EncodeFrameToBase64 encodes frame pixels to base64 for Pixoo API.
func EncodeFrameToBase64(frame *domain.Frame) string {
	return base64.StdEncoding.EncodeToString(frame.Pixels)
}

// CreatePixooFrameCommand creates a single-picture Draw/SendHttpGif command.
// picID must increase between sends or the device ignores the frame.
func CreatePixooFrameCommand(frame *domain.Frame, picID int) FrameCommand {
	if picID < 1 {
		picID = 1
	}
	return FrameCommand{
		Command:   "Draw/SendHttpGif",
		PicNum:    1,
		PicWidth:  frame.Width,
		PicOffset: 0,
		PicID:     picID,
		PicSpeed:  1000,
		PicData:   EncodeFrameToBase64(frame),
	}
}

// CreateResetGifIDCommand creates a Draw/ResetHttpGifId command.
func CreateResetGifIDCommand() PixooCommand {
	return PixooCommand{Command: "Draw/ResetHttpGifId"}
}

// CreateDeviceTimeCommand creates a Device/GetDeviceTime command.
func CreateDeviceTimeCommand() PixooCommand {
	return PixooCommand{Command: "Device/GetDeviceTime"}
}

// CreateBrightnessCommand creates a Channel/SetBrightness command.
func CreateBrightnessCommand(brightness int) BrightnessCommand {
	// Clamp to 0-100
	if brightness < 0 {
		brightness = 0
	}
	if brightness > 100 {
		brightness = 100
	}

	return BrightnessCommand{
		Command:    "Channel/SetBrightness",
		Brightness: brightness,
	}
}
