package main

import (
	"fmt"

	"github.com/ebitengine/oto/v3"
	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/nf/c8/host"
)

// otoSink plays the tone through an oto context, created on Start.
type otoSink struct {
	host.Tone
	player *oto.Player
}

func (s *otoSink) Start() error {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   host.SampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("oto: %w", err)
	}
	<-ready
	s.player = ctx.NewPlayer(&s.Tone)
	s.player.Play()
	return nil
}

// ebitenSink plays the tone through ebiten's audio context.
// The context must exist before the game loop starts; the player is
// created on Start.
type ebitenSink struct {
	host.Tone
	ctx    *audio.Context
	player *audio.Player
}

func newEbitenSink() *ebitenSink {
	return &ebitenSink{ctx: audio.NewContext(host.SampleRate)}
}

func (s *ebitenSink) Start() error {
	p, err := s.ctx.NewPlayer(&s.Tone)
	if err != nil {
		return fmt.Errorf("ebiten audio: %w", err)
	}
	p.Play()
	s.player = p
	return nil
}
