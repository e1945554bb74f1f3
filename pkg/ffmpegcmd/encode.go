package ffmpegcmd

import (
	"strings"

	"github.com/edirooss/avcapture-server/internal/domain/preset"
)

// filterChains carries filters merged into the preset's own -vf/-af.
type filterChains struct {
	videoPre  []string // run before the scaling filter
	audioPost []string // run after the downmix
}

// BuildArguments renders the encoder arguments of p.
func BuildArguments(p *preset.EncodingPreset, hasVideo, hasAudio bool) []string {
	return encode(p, hasVideo, hasAudio, filterChains{}).BuildArgv()
}

func encode(p *preset.EncodingPreset, hasVideo, hasAudio bool, fc filterChains) *Builder {
	b := NewBuilder()
	if hasVideo {
		encodeVideo(b, p.Video, fc.videoPre)
	}
	if hasAudio {
		encodeAudio(b, p.Audio, fc.audioPost)
	}
	return b
}

func encodeVideo(b *Builder, v preset.VideoSettings, pre []string) {
	rule, ok := videoRules[v.Codec]
	if !ok {
		rule = videoRules[preset.VideoH264]
	}
	b.Args("-c:v", rule.encoder).Args(rule.extra...)

	chain := append([]string(nil), pre...)
	if rule.encoder == "copy" {
		chain = nil // stream copy cannot be filtered
	}
	if f := scaleFilter(v.ScalingMode, v.FrameSize); f != "" {
		chain = append(chain, f)
	}
	b.Flag("-vf", strings.Join(chain, ","))

	b.PositiveFlag("-b:v", v.Bitrate, "k")
	b.PositiveFlag("-g", v.KeyFrameInterval, "")

	if v.Profile != preset.ProfileNone && rule.profiles[v.Profile.Profile()] {
		b.Args("-profile:v", v.Profile.Profile(), "-level", v.Profile.Level())
	}
}

// scaleFilter renders the scaling mode; without a frame size the input size is kept.
func scaleFilter(mode preset.ScalingMode, frameSize string) string {
	w, h := "iw", "ih"
	if ws, hs, ok := strings.Cut(frameSize, "x"); ok {
		w, h = ws, hs
	}
	switch mode {
	case preset.ScaleForce:
		return "scale=" + w + ":" + h
	case preset.ScalePad:
		return "scale=" + w + ":" + h + ":force_original_aspect_ratio=decrease,pad=" + w + ":" + h + ":(ow-iw)/2:(oh-ih)/2"
	case preset.ScaleCrop:
		return "scale=" + w + ":" + h + ":force_original_aspect_ratio=increase,crop=" + w + ":" + h
	}
	return ""
}

func encodeAudio(b *Builder, a preset.AudioSettings, post []string) {
	rule, ok := audioRuleFor(a)
	if !ok {
		rule = audioRules[preset.AudioHEAAC]
	}
	b.Args("-c:a", rule.encoder).Args(rule.extra...)
	b.Flag("-ar", string(a.SampleRate))
	b.Flag("-b:a", string(a.Bitrate))
	b.If(rule.vbrAllChannels && a.BitrateMode == preset.BitrateAllChannels, func(b *Builder) {
		b.Args("-vbr", "4")
	})
	b.If(rule.experimental, func(b *Builder) {
		b.Args("-strict", "experimental")
	})
	b.Flag("-ac", string(a.Channels))

	var chain []string
	if f, ok := Downmix(a); ok {
		chain = append(chain, f)
	}
	chain = append(chain, post...)
	b.Flag("-af", strings.Join(chain, ","))
}
