package game

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/hajimehoshi/ebiten/v2/audio"
)

const (
	chimeSampleRate = beep.SampleRate(44100)
	chimeNote       = 90 * time.Millisecond
	chimeVolume     = 0.35
	chimeMinGap     = 6 // ticks between chimes so a burst of arrivals stays readable
)

// chimeKey buckets chimes by direction and order of magnitude.
type chimeKey struct {
	positive bool
	octave   int
}

func chimeKeyFor(amount float64, positive bool) chimeKey {
	m := math.Abs(amount)
	oct := 0
	if m >= 1 {
		oct = int(math.Log10(m))
	}
	if oct > 5 {
		oct = 5
	}
	return chimeKey{positive: positive, octave: oct}
}

// notes returns the chime's pitches: a rising third for money in, a falling
// minor third for money out. Larger amounts sound lower.
func (k chimeKey) notes() []float64 {
	base := 1046.5 / math.Pow(2, float64(k.octave)/3)
	if k.positive {
		return []float64{base, base * 1.26}
	}
	return []float64{base * 1.19, base}
}

// decay is a linear attack and exponential release over a fixed length.
type decay struct {
	s      beep.Streamer
	pos    int
	attack int
	total  int
}

func newDecay(s beep.Streamer, d time.Duration) beep.Streamer {
	total := chimeSampleRate.N(d)
	return &decay{s: s, attack: total / 12, total: total}
}

func (d *decay) Stream(samples [][2]float64) (int, bool) {
	n, ok := d.s.Stream(samples)
	for i := 0; i < n; i++ {
		if d.pos >= d.total {
			return i, false
		}
		vol := math.Exp(-4 * float64(d.pos) / float64(d.total))
		if d.pos < d.attack {
			vol *= float64(d.pos) / float64(d.attack)
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		d.pos++
	}
	return n, ok
}

func (d *decay) Err() error { return d.s.Err() }

// synthChime builds the streamer for a chime.
func synthChime(k chimeKey) (beep.Streamer, error) {
	var parts []beep.Streamer
	for _, f := range k.notes() {
		tone, err := generators.SineTone(chimeSampleRate, f)
		if err != nil {
			return nil, err
		}
		overtone, err := generators.SineTone(chimeSampleRate, f*2)
		if err != nil {
			return nil, err
		}
		n := chimeSampleRate.N(chimeNote)
		mixed := beep.Mix(
			&effects.Volume{Streamer: beep.Take(n, tone), Base: 2, Volume: math.Log2(0.7)},
			&effects.Volume{Streamer: beep.Take(n, overtone), Base: 2, Volume: math.Log2(0.3)},
		)
		parts = append(parts, newDecay(mixed, chimeNote))
	}
	return &effects.Volume{Streamer: beep.Seq(parts...), Base: 2, Volume: math.Log2(chimeVolume)}, nil
}

// renderPCM drains s into signed 16-bit little-endian stereo PCM.
func renderPCM(s beep.Streamer) []byte {
	var out []byte
	buf := make([][2]float64, 512)
	var frame [4]byte
	for {
		n, ok := s.Stream(buf)
		for _, smp := range buf[:n] {
			for ch := 0; ch < 2; ch++ {
				v := math.Max(-1, math.Min(1, smp[ch]))
				binary.LittleEndian.PutUint16(frame[ch*2:], uint16(int16(v*math.MaxInt16)))
			}
			out = append(out, frame[:]...)
		}
		if !ok || n == 0 {
			return out
		}
	}
}

// Chimes plays a short synthesized tone whenever money arrives or leaves.
type Chimes struct {
	ctx      *audio.Context
	cache    map[chimeKey][]byte
	lastTick int
}

// NewChimes opens the audio context. Only one may exist per process.
func NewChimes() *Chimes {
	return &Chimes{
		ctx:      audio.NewContext(int(chimeSampleRate)),
		cache:    make(map[chimeKey][]byte),
		lastTick: -chimeMinGap,
	}
}

// pcm returns the cached rendering for k, synthesizing it on first use.
func (c *Chimes) pcm(k chimeKey) ([]byte, error) {
	if b, ok := c.cache[k]; ok {
		return b, nil
	}
	s, err := synthChime(k)
	if err != nil {
		return nil, err
	}
	b := renderPCM(s)
	c.cache[k] = b
	return b, nil
}

// Play sounds a chime for an effect unless one played within chimeMinGap ticks.
func (c *Chimes) Play(amount float64, positive bool, tick int) error {
	if c == nil || tick-c.lastTick < chimeMinGap {
		return nil
	}
	b, err := c.pcm(chimeKeyFor(amount, positive))
	if err != nil {
		return err
	}
	c.lastTick = tick
	c.ctx.NewPlayerFromBytes(b).Play()
	return nil
}
