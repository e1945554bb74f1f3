package preset

// Patch is a partial update; nil fields are left untouched. ID is never patchable.
type Patch struct {
	Video *VideoPatch `json:"video"`
	Audio *AudioPatch `json:"audio"`
}

type VideoPatch struct {
	Codec            *VideoCodec   `json:"codec"`
	FrameSize        *string       `json:"frame_size"`
	ScalingMode      *ScalingMode  `json:"scaling_mode"`
	Bitrate          *string       `json:"bitrate"`
	KeyFrameInterval *string       `json:"key_frame_interval"`
	Profile          *ProfileLevel `json:"profile"`
}

type AudioPatch struct {
	Codec         *AudioCodec    `json:"codec"`
	SampleRate    *SampleRate    `json:"sample_rate"`
	Bitrate       *AudioBitrate  `json:"bitrate"`
	BitrateMode   *BitrateMode   `json:"bitrate_mode"`
	Channels      *ChannelCount  `json:"channels"`
	ChannelLayout *ChannelLayout `json:"channel_layout"`
	IsFloat       *bool          `json:"is_float"`
	IsBigEndian   *bool          `json:"is_big_endian"`
}

// Apply merges the patch into p in place.
func (pt *Patch) Apply(p *EncodingPreset) {
	if v := pt.Video; v != nil {
		set(&p.Video.Codec, v.Codec)
		set(&p.Video.FrameSize, v.FrameSize)
		set(&p.Video.ScalingMode, v.ScalingMode)
		set(&p.Video.Bitrate, v.Bitrate)
		set(&p.Video.KeyFrameInterval, v.KeyFrameInterval)
		set(&p.Video.Profile, v.Profile)
	}
	if a := pt.Audio; a != nil {
		set(&p.Audio.Codec, a.Codec)
		set(&p.Audio.SampleRate, a.SampleRate)
		set(&p.Audio.Bitrate, a.Bitrate)
		set(&p.Audio.BitrateMode, a.BitrateMode)
		set(&p.Audio.Channels, a.Channels)
		set(&p.Audio.ChannelLayout, a.ChannelLayout)
		if a.IsFloat != nil {
			v := *a.IsFloat
			p.Audio.IsFloat = &v
		}
		if a.IsBigEndian != nil {
			v := *a.IsBigEndian
			p.Audio.IsBigEndian = &v
		}
	}
	p.Audio.NormalizePCMFlags()
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
