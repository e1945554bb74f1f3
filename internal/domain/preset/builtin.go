package preset

// BuiltinCount is the number of leading presets that may not be renamed or removed.
const BuiltinCount = 3

// Stable IDs of the built-in presets.
const (
	BuiltinHD720ID  = "builtin-hd720"
	BuiltinHD1080ID = "builtin-hd1080"
	Builtin4KID     = "builtin-4k"
)

// Builtins returns fresh copies of the HD720, HD1080 and 4K presets, in order.
func Builtins() []*EncodingPreset {
	return []*EncodingPreset{
		builtin(BuiltinHD720ID, "HD720", "1280x720", "5000"),
		builtin(BuiltinHD1080ID, "HD1080", "1920x1080", "8000"),
		builtin(Builtin4KID, "4K", "3840x2160", "35000"),
	}
}

// DefaultVideo/DefaultAudio seed presets created while no preset is active.
func DefaultVideo() VideoSettings { return Builtins()[0].Video }
func DefaultAudio() AudioSettings { return Builtins()[0].Audio }

func builtin(id, name, size, kbps string) *EncodingPreset {
	return &EncodingPreset{
		ID:   id,
		Name: name,
		Video: VideoSettings{
			Codec:            VideoH264,
			FrameSize:        size,
			Bitrate:          kbps,
			KeyFrameInterval: "25",
		},
		Audio: AudioSettings{
			Codec:       AudioHEAAC,
			SampleRate:  "48000",
			Bitrate:     "128k",
			BitrateMode: BitratePerChannel,
			Channels:    "2",
		},
	}
}
