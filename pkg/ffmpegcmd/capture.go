package ffmpegcmd

import (
	"strconv"

	"github.com/edirooss/avcapture-server/internal/domain/feed"
	"github.com/edirooss/avcapture-server/internal/domain/preset"
	"github.com/edirooss/avcapture-server/pkg/avurl"
)

// sdpWhitelist is the protocol whitelist ffmpeg needs to follow an SDP file.
const sdpWhitelist = "file,udp,rtp"

// LocalCapture describes one AVFoundation recording.
type LocalCapture struct {
	VideoIndex int
	AudioIndex int // < 0 = no microphone
	FrameRate  int
	Limit      string // "HH:MM:SS"; empty = unbounded
	Preset     *preset.EncodingPreset
	Output     string
}

// LocalRecordArgv renders:
//
//	-f avfoundation -fflags nobuffer -flags low_delay -framerate <fps>
//	[-video_size WxH] -i <cam[:mic]> [-t HH:MM:SS] <encode> -preset ultrafast <out>
func LocalRecordArgv(c LocalCapture) []string {
	input := strconv.Itoa(c.VideoIndex)
	hasAudio := c.AudioIndex >= 0
	if hasAudio {
		input += ":" + strconv.Itoa(c.AudioIndex)
	}

	b := NewBuilder().
		Args("-f", "avfoundation").
		Args("-fflags", "nobuffer", "-flags", "low_delay").
		Args("-framerate", strconv.Itoa(c.FrameRate)).
		Flag("-video_size", c.Preset.Video.FrameSize).
		Args("-i", input).
		Flag("-t", c.Limit)

	b.Args(encode(c.Preset, true, hasAudio, filterChains{}).BuildArgv()...)
	return b.Args("-preset", "ultrafast", c.Output).BuildArgv()
}

// IPCapture describes one IP camera recording.
type IPCapture struct {
	Feed   *feed.IPCameraFeed
	Limit  string
	Preset *preset.EncodingPreset
	Output string
}

// IPRecordArgv renders:
//
//	-fflags nobuffer -flags low_delay [-rtsp_transport tcp|udp]
//	(-protocol_whitelist file,udp,rtp -i <sdp> | -i <url>) [-video_size WxH]
//	<encode> [-t HH:MM:SS] [-af afftdn] -preset ultrafast <out>
//
// When the preset already emits a downmix, afftdn joins that chain instead
// of adding a second -af (ffmpeg keeps only the last one).
func IPRecordArgv(c IPCapture) []string {
	f, p := c.Feed, c.Preset

	var fc filterChains
	if f.Deinterlace {
		fc.videoPre = []string{"yadif"}
	}
	_, hasDownmix := Downmix(p.Audio)
	trailingDenoise := f.DenoiseAudio && !hasDownmix
	if f.DenoiseAudio && hasDownmix {
		fc.audioPost = []string{"afftdn"}
	}

	b := NewBuilder().Args("-fflags", "nobuffer", "-flags", "low_delay")
	ipInput(b, f)
	b.Flag("-video_size", p.Video.FrameSize)
	b.Args(encode(p, true, true, fc).BuildArgv()...)
	b.Flag("-t", c.Limit)
	b.If(trailingDenoise, func(b *Builder) { b.Args("-af", "afftdn") })
	return b.Args("-preset", "ultrafast", c.Output).BuildArgv()
}

// PreviewArgv renders the ffplay invocation for a feed preview window.
func PreviewArgv(f *feed.IPCameraFeed) []string {
	b := NewBuilder().
		Args("-hide_banner", "-loglevel", "warning").
		Args("-fflags", "nobuffer", "-flags", "low_delay", "-framedrop")
	ipInput(b, f)
	b.If(f.Deinterlace, func(b *Builder) { b.Args("-vf", "yadif") })
	return b.Args("-window_title", f.Name).BuildArgv()
}

// ProbeArgv renders an ffprobe call printing streams and format as JSON.
func ProbeArgv(f *feed.IPCameraFeed) []string {
	b := NewBuilder().Args("-v", "error", "-print_format", "json", "-show_streams", "-show_format")
	ipInput(b, f)
	return b.BuildArgv()
}

// ListDevicesArgv asks ffmpeg to print the AVFoundation device list on stderr.
func ListDevicesArgv() []string {
	return []string{"-hide_banner", "-f", "avfoundation", "-list_devices", "true", "-i", ""}
}

// ipInput emits the transport selector for rtsp URLs and then the input of
// f. An SDP file takes precedence over the URL as input.
func ipInput(b *Builder, f *feed.IPCameraFeed) {
	if avurl.Scheme(f.URL) == "rtsp" {
		b.Flag("-rtsp_transport", f.Transport.RTSPTransport())
	}
	if f.SDPFile != "" {
		b.Args("-protocol_whitelist", sdpWhitelist, "-i", f.SDPFile)
		return
	}
	b.Args("-i", avurl.WithCredentials(f.URL, f.Username, f.Password))
}
