// Package app wires the surveillance pipeline together: frame ingest,
// scheduled detection, motion analysis, the alert state machine, and
// asynchronous enrichment of alert records.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gocv.io/x/gocv"

	"github.com/vigilcam/vigil/internal/alert"
	"github.com/vigilcam/vigil/internal/assess"
	"github.com/vigilcam/vigil/internal/capture"
	"github.com/vigilcam/vigil/internal/config"
	"github.com/vigilcam/vigil/internal/detector"
	"github.com/vigilcam/vigil/internal/dispatch"
	"github.com/vigilcam/vigil/internal/facematch"
	"github.com/vigilcam/vigil/internal/notify"
	"github.com/vigilcam/vigil/internal/storage"
	"github.com/vigilcam/vigil/internal/store"
	"github.com/vigilcam/vigil/internal/track"
)

// Device push alert types.
const (
	alertTypeKnown   = "known_face"
	alertTypeUnknown = "unknown_face"
	alertTypeMotion  = "motion"
)

// motionKey is the cooldown key for the motion push channel.
const motionKey = "motion"

// alertStore is the slice of the alert repository the pipeline needs.
type alertStore interface {
	Create(ctx context.Context, record *alert.Record) (int64, error)
	Update(ctx context.Context, id int64, update alert.RecordUpdate) error
}

// contactStore lists notification destinations for an owner.
type contactStore interface {
	ListByOwner(ctx context.Context, owner string) ([]store.Contact, error)
}

// System is the assembled surveillance pipeline. All collaborators are
// injected; New performs the production wiring.
type System struct {
	cfg config.Config

	stream   capture.Stream
	motion   *capture.MotionDetector
	faces    detector.FaceDetector
	encoder  detector.FaceEncoder
	matcher  *facematch.Matcher
	pipeline *Pipeline
	sched    *Scheduler
	tracker  *track.Tracker

	recorder       *alert.Recorder
	cooldown       *alert.Cooldown
	motionCooldown *alert.Cooldown

	store    *store.Store
	alerts   alertStore
	contacts contactStore
	media    storage.Storage
	assessor assess.Assessor
	notifier *notify.Notifier
	device   *notify.DevicePush

	dispatcher *dispatch.Dispatcher
	stats      *Stats

	stopCh chan struct{}
}

// New builds a System from configuration, opening the database, loading
// the detection models and connecting the video stream.
func New(ctx context.Context, cfg config.Config) (*System, error) {
	db, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	detConfig := detector.Config{
		ProtoPath:     cfg.ProtoPath,
		ModelPath:     cfg.ModelPath,
		CascadePath:   cfg.CascadePath,
		EncoderPath:   cfg.EncoderPath,
		MinConfidence: 0.7,
	}

	faces := selectDetector(detConfig)
	if faces == nil {
		db.Close()
		return nil, errors.New("no face detection backend could be loaded")
	}

	encoder, err := detector.NewOpenFaceEncoder(detConfig)
	if err != nil {
		faces.Close()
		db.Close()
		return nil, fmt.Errorf("load face encoder: %w", err)
	}

	matcher := facematch.NewMatcher(db.Faces(), cfg.Owner, cfg.Tolerance)
	if err := matcher.Reload(ctx); err != nil {
		log.Printf("app: initial face index load failed, starting empty: %v", err)
	} else {
		log.Printf("app: face index loaded with %d enrolled encodings", matcher.Size())
	}

	recorder, err := alert.NewRecorder(cfg.RecordingDir, cfg.RecordingDuration, cfg.RecordingFPS)
	if err != nil {
		encoder.Close()
		faces.Close()
		db.Close()
		return nil, fmt.Errorf("create recorder: %w", err)
	}

	var media storage.Storage
	if cfg.StorageURL != "" {
		media = storage.NewObjectStorage(cfg.StorageURL, cfg.StorageKey, cfg.Bucket)
	} else {
		log.Print("app: object storage not configured, media uploads disabled")
	}

	tracker := track.NewTracker(cfg.FrameWidth, cfg.FrameHeight)
	stats := &Stats{}

	s := &System{
		cfg:            cfg,
		stream:         capture.NewStream(cfg.StreamURL, cfg.FrameWidth, cfg.FrameHeight, cfg.TargetFPS),
		motion:         capture.NewMotionDetector(cfg.MotionSensitivity),
		faces:          faces,
		encoder:        encoder,
		matcher:        matcher,
		pipeline:       NewPipeline(faces, encoder, matcher, tracker, cfg.DetectionScale, stats),
		sched:          NewScheduler(cfg.FrameStride),
		tracker:        tracker,
		recorder:       recorder,
		cooldown:       alert.NewCooldown(cfg.Cooldown),
		motionCooldown: alert.NewCooldown(cfg.MotionCooldown),
		store:          db,
		alerts:         db.Alerts(),
		contacts:       db.Contacts(),
		media:          media,
		assessor:       assess.NewGeminiAssessor(ctx, cfg.GeminiAPIKey),
		notifier:       notify.NewNotifier(smsSender(cfg)),
		device:         notify.NewDevicePush(cfg.DevicePushURL, cfg.DeviceSecret),
		dispatcher:     dispatch.New(ctx, 0, 0),
		stats:          stats,
	}
	s.stopCh = make(chan struct{})
	return s, nil
}

// smsSender returns the Twilio sender, or a nil interface when SMS is
// unconfigured so the notifier skips the fanout cleanly.
func smsSender(cfg config.Config) notify.SMSSender {
	if sender := notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom); sender != nil {
		return sender
	}
	log.Print("app: Twilio not configured, SMS notification disabled")
	return nil
}

// selectDetector loads the DNN face detector, falling back to the Haar
// cascade when the model files are unavailable. The choice is made once
// at startup and logged.
func selectDetector(cfg detector.Config) detector.FaceDetector {
	dnn, err := detector.NewDNNDetector(cfg)
	if err == nil {
		log.Print("app: using DNN face detector")
		return dnn
	}
	log.Printf("app: DNN face detector unavailable (%v), trying Haar cascade", err)

	cascade, err := detector.NewCascadeDetector(cfg)
	if err == nil {
		log.Print("app: using Haar cascade face detector")
		return cascade
	}
	log.Printf("app: Haar cascade detector unavailable: %v", err)
	return nil
}

// Run opens the stream and drives the main loop until the context is
// canceled, Stop is called, or a fatal read error occurs. Resources are
// released before return.
func (s *System) Run(ctx context.Context) error {
	if err := s.stream.Open(); err != nil {
		s.release()
		return fmt.Errorf("open stream: %w", err)
	}
	width, height := s.stream.Size()
	if width > 0 && height > 0 {
		s.tracker.SetFrameSize(width, height)
	}
	log.Printf("app: stream open at %dx%d, %.1f fps", width, height, s.stream.FPS())

	defer s.release()

	lastReload := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stopCh:
			return nil
		default:
		}

		now := time.Now()

		if now.Sub(lastReload) >= s.cfg.FaceReloadInterval {
			lastReload = now
			s.reloadFaces(ctx)
		}

		frame, err := s.stream.Read()
		if err != nil {
			s.stats.AddReadFailure()
			log.Printf("app: stream read failed, stopping: %v", err)
			return err
		}

		s.processFrame(ctx, frame, now)
		frame.Close()
	}
}

// Stop signals the main loop to exit. Safe to call once.
func (s *System) Stop() {
	close(s.stopCh)
}

// processFrame runs one iteration of the pipeline state machine on a
// single frame.
func (s *System) processFrame(ctx context.Context, frame *gocv.Mat, now time.Time) {
	s.stats.AddFrame()

	var persons []alert.Person
	if s.sched.Next() {
		detected, err := s.pipeline.Process(frame)
		if err != nil {
			log.Printf("app: detection failed: %v", err)
		} else {
			s.sched.Cache(detected)
			persons = detected
		}
	} else {
		s.stats.AddSkipped()
		persons = s.sched.Cached()
	}

	if s.recorder.Active() {
		s.recorder.Write(frame)
		if s.recorder.Expired(now) {
			s.finishSession(s.recorder.StopSession())
		}
	}

	s.handleMotion(ctx, frame, now)

	for _, person := range persons {
		s.maybeAlert(ctx, frame, person, now)
	}
}

// handleMotion runs background subtraction and pushes a motion event to
// the device channel, rate limited to one push per cooldown interval.
func (s *System) handleMotion(ctx context.Context, frame *gocv.Mat, now time.Time) {
	moving, _ := s.motion.Detect(frame)
	if !moving {
		return
	}
	s.stats.AddMotion()

	if !s.motionCooldown.AllowKey(motionKey, now) {
		return
	}
	s.dispatcher.Go("motion-push", func(ctx context.Context) {
		s.device.Notify(ctx, s.cfg.DeviceID, true, alertTypeMotion)
	})
}

// maybeAlert runs the alert state machine for one detected person:
// cooldown gate, single recording slot, synchronous record creation,
// then asynchronous enrichment and notification.
func (s *System) maybeAlert(ctx context.Context, frame *gocv.Mat, person alert.Person, now time.Time) {
	if !s.cooldown.Allow(person.Identity, now) {
		return
	}

	// One recording at a time. A second qualifying person while a session
	// is active still gets an alert record and notification; only the
	// media capture is dropped.
	session := &alert.Session{Person: person}
	if !s.recorder.Active() {
		started, err := s.recorder.StartSession(frame, person, now)
		if err != nil {
			log.Printf("app: could not start recording for %s: %v", person.Identity, err)
			return
		}
		session = started
	}

	record := &alert.Record{
		Owner:         s.cfg.Owner,
		DeviceID:      s.cfg.DeviceID,
		Identity:      person.Identity.String(),
		IsKnown:       person.Identity.IsKnown(),
		Confidence:    person.Confidence,
		ThumbnailFile: session.ThumbnailFile,
		VideoFile:     session.VideoFile,
		CreatedAt:     now,
	}
	id, err := s.alerts.Create(ctx, record)
	if err != nil {
		log.Printf("app: persist alert for %s: %v", person.Identity, err)
	} else {
		session.AlertID = id
		s.stats.AddAlert()
	}
	log.Printf("app: alert started for %s (confidence %.2f)", person.Identity, person.Confidence)

	s.dispatchPersonPush(person.Identity)

	if session.AlertID != 0 && session.ImagePath != "" {
		s.dispatcher.Go("thumbnail-upload", func(ctx context.Context) {
			s.uploadThumbnail(ctx, session)
		})
	}
	s.dispatcher.Go("assess-notify", func(ctx context.Context) {
		s.assessAndNotify(ctx, session)
	})
}

// dispatchPersonPush sends a person-detected event to the device channel.
// Person events carry motion=true alongside the alert type.
func (s *System) dispatchPersonPush(id facematch.Identity) {
	alertType := alertTypeUnknown
	if id.IsKnown() {
		alertType = alertTypeKnown
	}
	s.dispatcher.Go("device-push", func(ctx context.Context) {
		s.device.Notify(ctx, s.cfg.DeviceID, true, alertType)
	})
}

// finishSession handles recording expiry: the video file is uploaded and
// bound to the alert record captured at session start.
func (s *System) finishSession(session *alert.Session) {
	if session == nil {
		return
	}
	log.Printf("app: recording finished for %s (%s)", session.Person.Identity, session.VideoFile)

	if session.AlertID == 0 || s.media == nil {
		return
	}
	s.dispatcher.Go("video-upload", func(ctx context.Context) {
		data, err := os.ReadFile(session.VideoPath)
		if err != nil {
			log.Printf("app: read recording %s: %v", session.VideoPath, err)
			return
		}
		url, err := s.media.Upload(ctx, data, session.VideoFile, "video/mp4")
		if err != nil {
			log.Printf("app: upload recording %s: %v", session.VideoFile, err)
			return
		}
		if err := s.alerts.Update(ctx, session.AlertID, alert.RecordUpdate{VideoURL: &url}); err != nil {
			log.Printf("app: bind video url to alert %d: %v", session.AlertID, err)
		}
	})
}

// uploadThumbnail publishes the session snapshot and binds its public
// URL to the alert record.
func (s *System) uploadThumbnail(ctx context.Context, session *alert.Session) {
	if s.media == nil {
		return
	}
	data, err := os.ReadFile(session.ImagePath)
	if err != nil {
		log.Printf("app: read snapshot %s: %v", session.ImagePath, err)
		return
	}
	url, err := s.media.Upload(ctx, data, session.ThumbnailFile, "image/jpeg")
	if err != nil {
		log.Printf("app: upload snapshot %s: %v", session.ThumbnailFile, err)
		return
	}
	if err := s.alerts.Update(ctx, session.AlertID, alert.RecordUpdate{ThumbnailURL: &url}); err != nil {
		log.Printf("app: bind thumbnail url to alert %d: %v", session.AlertID, err)
	}
}

// assessAndNotify obtains the threat assessment, stores it, and fans the
// alert out to the owner's contacts.
func (s *System) assessAndNotify(ctx context.Context, session *alert.Session) {
	assessment := assess.Unavailable
	if s.assessor != nil {
		assessment = s.assessor.Assess(ctx, session.Person)
	}

	if session.AlertID != 0 && !assess.IsDegraded(assessment) {
		level := alert.ParseThreatLevel(assessment)
		update := alert.RecordUpdate{Assessment: &assessment}
		if level != alert.ThreatLevelNone {
			update.ThreatLevel = &level
		}
		if err := s.alerts.Update(ctx, session.AlertID, update); err != nil {
			log.Printf("app: store assessment for alert %d: %v", session.AlertID, err)
		}
	}

	contacts, err := s.contacts.ListByOwner(ctx, s.cfg.Owner)
	if err != nil {
		log.Printf("app: list contacts: %v", err)
		return
	}
	destinations := make([]string, 0, len(contacts))
	for _, c := range contacts {
		destinations = append(destinations, c.Phone)
	}

	thumbnailURL := ""
	if s.media != nil && session.ThumbnailFile != "" {
		// The thumbnail upload runs concurrently; recompute the public
		// URL deterministically rather than waiting on it.
		thumbnailURL = s.media.PublicURL(session.ThumbnailFile)
	}

	sent := s.notifier.Notify(ctx, session.Person, assessment, thumbnailURL, destinations)
	if sent > 0 {
		log.Printf("app: alert sent to %d contact(s)", sent)
	}
}

// reloadFaces refreshes the in-memory face index from the store.
func (s *System) reloadFaces(ctx context.Context) {
	if err := s.matcher.Reload(ctx); err != nil {
		log.Printf("app: face index reload failed, keeping previous index: %v", err)
		return
	}
	log.Printf("app: face index reloaded, %d enrolled encodings", s.matcher.Size())
}

// release tears down every component and logs the final counters.
func (s *System) release() {
	if session := s.recorder.StopSession(); session != nil {
		s.finishSession(session)
	}
	s.dispatcher.Close()

	s.stream.Close()
	s.motion.Close()
	if err := s.faces.Close(); err != nil {
		log.Printf("app: close detector: %v", err)
	}
	if err := s.encoder.Close(); err != nil {
		log.Printf("app: close encoder: %v", err)
	}
	s.recorder.Close()
	if err := s.store.Close(); err != nil {
		log.Printf("app: close store: %v", err)
	}

	snap := s.stats.Snapshot()
	log.Printf("app: session stats: frames=%d skipped=%d faces=%d known=%d unknown=%d motion=%d alerts=%d readFailures=%d",
		snap.FramesRead, snap.FramesSkipped, snap.FacesDetected, snap.KnownMatches,
		snap.UnknownMatches, snap.MotionEvents, snap.AlertsCreated, snap.ReadFailures)
}
