// Package midiemit converts a flattened project into a Standard MIDI File
// (format 1): one setup track carrying tempo and name, plus one track per
// emitting Track, per spec §4.E.
package midiemit

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/clawdaw/clawdaw/internal/flatten"
	"github.com/clawdaw/clawdaw/internal/model"
)

const (
	ccVolume = 7
	ccPan    = 10
	ccReverb = 91
	ccChorus = 93
)

// event is an absolute-tick MIDI event prior to delta conversion. kind
// breaks same-tick ties: note_off sorts before note_on (spec §4.E/§8).
type event struct {
	tick int
	kind int // 0 = control/program, 1 = note_off, 2 = note_on
	data []byte
}

const (
	kindControl = 0
	kindNoteOff = 1
	kindNoteOn  = 2
)

// Emit produces the bytes of a format-1 Standard MIDI File for project p.
func Emit(p *model.Project) []byte {
	var tracks [][]byte

	tracks = append(tracks, setupTrack(p))

	emitting := resolveSolo(p.Tracks)
	for i, t := range emitting {
		if t == nil {
			continue
		}
		tracks = append(tracks, trackChunk(p, t, i))
	}

	var buf bytes.Buffer
	writeHeader(&buf, len(tracks), p.PPQ)
	for _, tr := range tracks {
		buf.Write(tr)
	}
	return buf.Bytes()
}

// resolveSolo returns a slice parallel to p.Tracks where entries that
// should not emit are nil: if any track is soloed, only soloed tracks
// survive; otherwise every non-muted track does.
func resolveSolo(tracks []*model.Track) []*model.Track {
	anySolo := false
	for _, t := range tracks {
		if t.Solo {
			anySolo = true
			break
		}
	}

	out := make([]*model.Track, len(tracks))
	for i, t := range tracks {
		switch {
		case anySolo && t.Solo:
			out[i] = t
		case !anySolo && !t.Mute:
			out[i] = t
		}
	}
	return out
}

func writeHeader(buf *bytes.Buffer, numTracks, ppq int) {
	buf.WriteString("MThd")
	writeUint32(buf, 6)
	writeUint16(buf, 1) // format 1
	writeUint16(buf, uint16(numTracks))
	writeUint16(buf, uint16(ppq))
}

func setupTrack(p *model.Project) []byte {
	var body bytes.Buffer
	writeVarLen(&body, 0)
	body.WriteString(string([]byte{0xFF, 0x03, byte(len(p.Name))}))
	body.WriteString(p.Name)

	writeVarLen(&body, 0)
	mpqn := uint32(60_000_000 / max1(p.TempoBPM))
	body.WriteByte(0xFF)
	body.WriteByte(0x51)
	body.WriteByte(0x03)
	body.WriteByte(byte(mpqn >> 16))
	body.WriteByte(byte(mpqn >> 8))
	body.WriteByte(byte(mpqn))

	writeVarLen(&body, 0)
	body.Write([]byte{0xFF, 0x2F, 0x00})

	return chunk("MTrk", body.Bytes())
}

func trackChunk(p *model.Project, t *model.Track, trackIndex int) []byte {
	var events []event

	events = append(events, event{tick: 0, kind: kindControl, data: []byte{0xC0 | byte(t.Channel), byte(t.Program)}})
	events = append(events, event{tick: 0, kind: kindControl, data: []byte{0xB0 | byte(t.Channel), ccVolume, byte(t.Volume)}})
	events = append(events, event{tick: 0, kind: kindControl, data: []byte{0xB0 | byte(t.Channel), ccPan, byte(t.Pan)}})
	events = append(events, event{tick: 0, kind: kindControl, data: []byte{0xB0 | byte(t.Channel), ccReverb, byte(t.Reverb)}})
	events = append(events, event{tick: 0, kind: kindControl, data: []byte{0xB0 | byte(t.Channel), ccChorus, byte(t.Chorus)}})

	notes := flatten.Flatten(p, trackIndex)
	for _, n := range notes {
		vel := n.EffectiveVelocity()
		events = append(events, event{tick: n.Start, kind: kindNoteOn, data: []byte{0x90 | byte(t.Channel), byte(n.Pitch), byte(vel)}})
		events = append(events, event{tick: n.End(), kind: kindNoteOff, data: []byte{0x80 | byte(t.Channel), byte(n.Pitch), 0}})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].kind < events[j].kind
	})

	var body bytes.Buffer
	writeVarLen(&body, 0)
	name := t.Name
	body.WriteByte(0xFF)
	body.WriteByte(0x03)
	body.WriteByte(byte(len(name)))
	body.WriteString(name)

	last := 0
	for _, e := range events {
		delta := e.tick - last
		if delta < 0 {
			delta = 0
		}
		writeVarLen(&body, uint32(delta))
		body.Write(e.data)
		last = e.tick
	}

	writeVarLen(&body, 0)
	body.Write([]byte{0xFF, 0x2F, 0x00})

	return chunk("MTrk", body.Bytes())
}

func chunk(id string, body []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(id)
	writeUint32(&buf, uint32(len(body)))
	buf.Write(body)
	return buf.Bytes()
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

// writeVarLen writes a MIDI variable-length quantity.
func writeVarLen(buf *bytes.Buffer, v uint32) {
	var stack [4]byte
	n := 0
	stack[n] = byte(v & 0x7F)
	n++
	v >>= 7
	for v > 0 {
		stack[n] = byte(v&0x7F) | 0x80
		n++
		v >>= 7
	}
	for i := n - 1; i >= 0; i-- {
		buf.WriteByte(stack[i])
	}
}

func max1(v int) int {
	if v <= 0 {
		return 1
	}
	return v
}
