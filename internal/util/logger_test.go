package util

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestZerologLevel(t *testing.T) {
	t.Parallel()

	tests := map[LogLevel]zerolog.Level{
		TraceLevel: zerolog.TraceLevel,
		DebugLevel: zerolog.DebugLevel,
		InfoLevel:  zerolog.InfoLevel,
		WarnLevel:  zerolog.WarnLevel,
		ErrorLevel: zerolog.ErrorLevel,
		99:         zerolog.InfoLevel,
		-1:         zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ZerologLevel(in), "level %d", in)
	}
}

// Mutates the global logger so not parallel
func TestNewLogLogger(t *testing.T) {
	prev := log.Logger
	prevLvl := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLvl)
	})

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	l := NewLogLogger("fuse", WarnLevel)
	l.Print("2024/01/01 12:00:00 writer.go:42: mount ready")

	out := buf.String()
	assert.Contains(t, out, `"component":"fuse"`)
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"message":"mount ready"`)
}

func TestGetLogger(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)

	logger := GetLogger("checker")
	logger.Error().Msg("boom")

	assert.Contains(t, buf.String(), `"component":"checker"`)
}

func TestPointer(t *testing.T) {
	t.Parallel()

	p := Pointer(3)
	assert.Equal(t, 3, *p)
	*p = 4
	assert.Equal(t, 4, *Pointer(*p))
}
