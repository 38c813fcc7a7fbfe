// Package session holds the single interactive session as an explicit
// state machine: Idle → ImageAcquired → Recognizing → ResultReady | Failed.
package session

import (
	"errors"
	"sync"

	"github.com/Aashish23092/print-ocr/dto"
)

type State int

const (
	Idle State = iota
	ImageAcquired
	Recognizing
	ResultReady
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ImageAcquired:
		return "image_acquired"
	case Recognizing:
		return "recognizing"
	case ResultReady:
		return "result_ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	ErrBusy           = errors.New("recognition already in progress")
	ErrNoImage        = errors.New("no image acquired")
	ErrNotRecognizing = errors.New("no recognition in progress")
)

// Stage says which control a failure belongs to.
type Stage string

const (
	StageUpload    Stage = "upload"
	StageURL       Stage = "url"
	StageRecognize Stage = "recognize"
)

type Failure struct {
	Stage Stage
	Err   error
}

// Snapshot is a copy of the session safe to render without holding the lock.
type Snapshot struct {
	State      State
	Image      *dto.Image
	Result     *dto.RecognitionResult
	Failure    *Failure
	LastSource dto.ImageSource
}

type Session struct {
	mu         sync.Mutex
	state      State
	image      *dto.Image
	result     *dto.RecognitionResult
	failure    *Failure
	lastSource dto.ImageSource
}

func New() *Session {
	return &Session{state: Idle, lastSource: dto.SourceUpload}
}

// Acquire replaces the current image and discards any previous result.
func (s *Session) Acquire(img *dto.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Recognizing {
		return ErrBusy
	}
	s.state = ImageAcquired
	s.image = img
	s.result = nil
	s.failure = nil
	s.lastSource = img.Source
	return nil
}

// AcquireFailed records a decode or fetch failure. No image remains set.
func (s *Session) AcquireFailed(source dto.ImageSource, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Recognizing {
		return ErrBusy
	}
	stage := StageUpload
	if source == dto.SourceURL {
		stage = StageURL
	}
	s.state = Failed
	s.image = nil
	s.result = nil
	s.failure = &Failure{Stage: stage, Err: err}
	s.lastSource = source
	return nil
}

// BeginRecognition moves to Recognizing and hands out the image to run.
func (s *Session) BeginRecognition() (*dto.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Recognizing {
		return nil, ErrBusy
	}
	if s.image == nil {
		return nil, ErrNoImage
	}
	s.state = Recognizing
	s.result = nil
	s.failure = nil
	return s.image, nil
}

func (s *Session) CompleteRecognition(result *dto.RecognitionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Recognizing {
		return ErrNotRecognizing
	}
	s.state = ResultReady
	s.result = result
	return nil
}

// FailRecognition keeps the image so the user can retry without re-acquiring.
func (s *Session) FailRecognition(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Recognizing {
		return ErrNotRecognizing
	}
	s.state = Failed
	s.failure = &Failure{Stage: StageRecognize, Err: err}
	return nil
}

func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Recognizing {
		return ErrBusy
	}
	s.state = Idle
	s.image = nil
	s.result = nil
	s.failure = nil
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:      s.state,
		Image:      s.image,
		Result:     s.result,
		LastSource: s.lastSource,
	}
	if s.failure != nil {
		f := *s.failure
		snap.Failure = &f
	}
	return snap
}
