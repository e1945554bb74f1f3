package preset

// EncodingPreset is a named bundle of video and audio encoding parameters.
type EncodingPreset struct {
	ID    string        `json:"id"`   // immutable once created
	Name  string        `json:"name"` //
	Video VideoSettings `json:"video"`
	Audio AudioSettings `json:"audio"`
}

type VideoSettings struct {
	Codec            VideoCodec   `json:"codec"`              //
	FrameSize        string       `json:"frame_size"`         // "WxH"; empty = native camera size
	ScalingMode      ScalingMode  `json:"scaling_mode"`       // empty = no scaling filter
	Bitrate          string       `json:"bitrate"`            // kbps, numeric string
	KeyFrameInterval string       `json:"key_frame_interval"` // numeric string
	Profile          ProfileLevel `json:"profile"`            // empty = encoder default
}

type AudioSettings struct {
	Codec         AudioCodec    `json:"codec"`                   //
	SampleRate    SampleRate    `json:"sample_rate"`             //
	Bitrate       AudioBitrate  `json:"bitrate"`                 //
	BitrateMode   BitrateMode   `json:"bitrate_mode"`            //
	Channels      ChannelCount  `json:"channels"`                //
	ChannelLayout ChannelLayout `json:"channel_layout"`          // "stereo" requests a downmix
	IsFloat       *bool         `json:"is_float,omitempty"`      // PCM only
	IsBigEndian   *bool         `json:"is_big_endian,omitempty"` // PCM only
}

// Clone returns a deep copy (the PCM flag pointers are not shared).
func (p *EncodingPreset) Clone() *EncodingPreset {
	c := *p
	if p.Audio.IsFloat != nil {
		v := *p.Audio.IsFloat
		c.Audio.IsFloat = &v
	}
	if p.Audio.IsBigEndian != nil {
		v := *p.Audio.IsBigEndian
		c.Audio.IsBigEndian = &v
	}
	return &c
}

// NormalizePCMFlags drops the float/endianness flags for non-PCM codecs.
func (a *AudioSettings) NormalizePCMFlags() {
	if a.Codec != AudioLinearPCM {
		a.IsFloat = nil
		a.IsBigEndian = nil
	}
}
