package store

import (
	"database/sql"
	"time"

	"github.com/ayusman/handarm/internal/gesture"
	"github.com/ayusman/handarm/internal/record"
)

// Sample is a stored metrics row.
type Sample struct {
	ID              int64                 `json:"id"`
	SessionID       string                `json:"session_id"`
	CapturedAt      time.Time             `json:"captured_at"`
	OpennessPercent int                   `json:"openness"`
	OpennessState   gesture.OpennessState `json:"openness_state"`
	Facing          gesture.Facing        `json:"facing"`
	FacingPercent   int                   `json:"facing_percent"`
	WristX          int                   `json:"wrist_x"`
	WristY          int                   `json:"wrist_y"`
	Reach           int                   `json:"reach"`
	Stationary      bool                  `json:"stationary"`
	ThumbX          int                   `json:"thumb_x"`
	ThumbY          int                   `json:"thumb_y"`
	IndexX          int                   `json:"index_x"`
	IndexY          int                   `json:"index_y"`
	MidX            int                   `json:"mid_x"`
	MidY            int                   `json:"mid_y"`
}

// SampleRepository stores sampled metrics.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Insert stores one recorded sample for a session.
func (r *SampleRepository) Insert(sessionID string, rs record.Sample) error {
	m := rs.Metrics
	_, err := r.db.Exec(
		`INSERT INTO samples (session_id, captured_at, openness, openness_state, facing, facing_percent,
			wrist_x, wrist_y, reach, stationary, thumb_x, thumb_y, index_x, index_y, mid_x, mid_y)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, rs.Time.UTC(), m.OpennessPercent, string(m.OpennessState), string(m.Facing), m.FacingPercent,
		m.Wrist.X, m.Wrist.Y, m.Reach, m.Stationary,
		m.Tips.Thumb.X, m.Tips.Thumb.Y, m.Tips.Index.X, m.Tips.Index.Y, m.Tips.Middle.X, m.Tips.Middle.Y,
	)
	return err
}

// ListBySession returns a session's samples in capture order. limit <= 0 returns all.
func (r *SampleRepository) ListBySession(sessionID string, limit int) ([]Sample, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(
		`SELECT id, session_id, captured_at, openness, openness_state, facing, facing_percent,
			wrist_x, wrist_y, reach, stationary, thumb_x, thumb_y, index_x, index_y, mid_x, mid_y
		 FROM samples
		 WHERE session_id = ?
		 ORDER BY captured_at, id
		 LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		var state, facing string
		if err := rows.Scan(&s.ID, &s.SessionID, &s.CapturedAt, &s.OpennessPercent, &state, &facing, &s.FacingPercent,
			&s.WristX, &s.WristY, &s.Reach, &s.Stationary,
			&s.ThumbX, &s.ThumbY, &s.IndexX, &s.IndexY, &s.MidX, &s.MidY); err != nil {
			return nil, err
		}
		s.OpennessState = gesture.OpennessState(state)
		s.Facing = gesture.Facing(facing)
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// CountBySession returns how many samples a session has.
func (r *SampleRepository) CountBySession(sessionID string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM samples WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}

// Recorder writes samples of one session. It implements record.Recorder.
type Recorder struct {
	samples   *SampleRepository
	sessionID string
}

// Recorder returns a recorder appending samples to the given session.
func (s *Store) Recorder(sessionID string) *Recorder {
	return &Recorder{samples: s.Samples(), sessionID: sessionID}
}

func (r *Recorder) Record(s record.Sample) error {
	return r.samples.Insert(r.sessionID, s)
}

// Close is a no-op; the Store owns the connection.
func (r *Recorder) Close() error { return nil }
