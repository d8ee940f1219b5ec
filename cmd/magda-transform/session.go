package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"

	"github.com/chzyer/readline"

	"github.com/Conceptual-Machines/magda-transforms-go/midifile"
	"github.com/Conceptual-Machines/magda-transforms-go/models"
	"github.com/Conceptual-Machines/magda-transforms-go/transform"
)

const replHelp = `Enter transform lines (use ";" to separate statements). Commands:
  :show          print the current notes
  :reset         restore the notes as loaded
  :write [path]  save the current notes (defaults to -out)
  :quit          exit`

// session holds a loaded clip while programs are applied to it
type session struct {
	engine  *transform.Engine
	clip    *midifile.Clip
	clipCtx *models.ClipContext
	loaded  []models.NoteEvent
	out     string
	w       io.Writer
}

// apply runs source over the current notes and prints the difference
func (s *session) apply(ctx context.Context, source string) error {
	if s.loaded == nil {
		s.loaded = slices.Clone(s.clip.Notes)
	}

	program, err := transform.Parse(source)
	if err != nil {
		return err
	}

	before := slices.Clone(s.clip.Notes)
	after, report := s.engine.ApplyNotes(ctx, slices.Clone(s.clip.Notes), program, s.clip.TimeSignature, s.clipCtx)
	s.clip.Notes = after

	fmt.Fprintln(s.w, renderNotes(before, after, s.clip.TimeSignature))
	fmt.Fprintln(s.w, renderReport(report))
	return nil
}

// save writes the current notes to -out, if given
func (s *session) save() error {
	if s.out == "" {
		return nil
	}
	return s.write(s.out)
}

func (s *session) write(path string) error {
	if err := midifile.WriteFile(path, s.clip); err != nil {
		return err
	}
	log.Printf("💾 Wrote %d notes to %s", len(s.clip.Notes), path)
	return nil
}

func (s *session) repl(ctx context.Context) error {
	rl, err := readline.New("transform> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Fprintln(s.w, replHelp)
	for {
		line, err := rl.Readline()
		if errors.Is(err, io.EOF) {
			return s.save()
		}
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		quit, err := s.eval(ctx, line)
		if err != nil {
			fmt.Fprintln(s.w, warningStyle.Render(err.Error()))
		}
		if quit {
			return nil
		}
	}
}

// eval handles one REPL line and reports whether the session should end
func (s *session) eval(ctx context.Context, line string) (bool, error) {
	if !strings.HasPrefix(line, ":") {
		return false, s.apply(ctx, line)
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case ":show":
		fmt.Fprintln(s.w, renderNoteTable(fmt.Sprintf("Notes (%d)", len(s.clip.Notes)), s.clip.Notes, s.clip.TimeSignature))
	case ":reset":
		if s.loaded != nil {
			s.clip.Notes = slices.Clone(s.loaded)
		}
		fmt.Fprintln(s.w, okStyle.Render("notes restored"))
	case ":write":
		path := s.out
		if len(fields) > 1 {
			path = fields[1]
		}
		if path == "" {
			return false, errors.New(":write needs a path (or run with -out)")
		}
		return false, s.write(path)
	case ":quit", ":q":
		return true, s.save()
	default:
		return false, fmt.Errorf("unknown command %s", fields[0])
	}
	return false, nil
}
