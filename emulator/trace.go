package emulator

import (
	"fmt"
	"log"
	"strings"

	"github.com/ezrec/synacor/cpu"
)

// LogTracer writes fetch and peek events to a logger.
type LogTracer struct {
	Logger *log.Logger
}

var _ cpu.Tracer = (*LogTracer)(nil)

func (lt *LogTracer) Fetch(addr cpu.Word, raw cpu.Word) {
	lt.Logger.Printf("[pc %04x] %v", uint16(addr), raw)
}

func (lt *LogTracer) Peek(addr cpu.Word, raws []cpu.Word) {
	words := make([]string, len(raws))
	for n, raw := range raws {
		words[n] = fmt.Sprintf("%v", raw)
	}
	lt.Logger.Printf("[peek %04x] %v", uint16(addr), strings.Join(words, " "))
}
