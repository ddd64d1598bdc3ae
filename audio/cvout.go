package audio

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// CVOutput plays a Stream on the default audio device
type CVOutput struct {
	ctx    *oto.Context
	player *oto.Player
	mu     sync.Mutex
}

// NewCVOutput opens the device and starts pulling from src. Only one oto
// context may exist per process.
func NewCVOutput(sampleRate int, src Source) (*CVOutput, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: Channels,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	out := &CVOutput{ctx: ctx}
	out.player = ctx.NewPlayer(NewStream(src))
	// ~10ms of frames keeps clock edges tight
	out.player.SetBufferSize(sampleRate / 100 * Channels * bytesPerSample)
	out.player.Play()

	return out, nil
}

// Close stops the stream
func (o *CVOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return nil
	}
	err := o.player.Close()
	o.player = nil
	return err
}
