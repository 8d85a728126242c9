package chase

import (
	"errors"
	"io"
)

// Recorder persists what a simulation produces. RecordRound is called once
// per executed round, in order, before the next round starts; Finish is
// called once with every summary after the last round.
type Recorder interface {
	RecordRound(res RoundResult) error
	Finish(summaries []RoundSummary) error
}

// Recorders fans out to several recorders in order.
type Recorders []Recorder

// RecordRound stops at the first failing recorder.
func (rs Recorders) RecordRound(res RoundResult) error {
	for _, r := range rs {
		if err := r.RecordRound(res); err != nil {
			return err
		}
	}
	return nil
}

// Finish gives every recorder a chance to flush, joining their errors.
func (rs Recorders) Finish(summaries []RoundSummary) error {
	var errs []error
	for _, r := range rs {
		if err := r.Finish(summaries); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every recorder that holds a resource.
func (rs Recorders) Close() error {
	var errs []error
	for _, r := range rs {
		if c, ok := r.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecorderFunc turns a per-round callback into a Recorder.
type RecorderFunc func(res RoundResult) error

// RecordRound calls f.
func (f RecorderFunc) RecordRound(res RoundResult) error {
	return f(res)
}

// Finish does nothing.
func (f RecorderFunc) Finish([]RoundSummary) error {
	return nil
}
