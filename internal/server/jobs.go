package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apierrors "github.com/copyleftdev/vrpls/internal/errors"
	"github.com/copyleftdev/vrpls/internal/metrics"
)

// JobStatus is the lifecycle state of an asynchronous solve.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job is an asynchronous solve. Its fields are guarded by Server.jobsMu.
type Job struct {
	ID          string
	Status      JobStatus
	Initializer string
	Strategy    string
	Submitted   time.Time
	Started     *time.Time
	Finished    *time.Time
	Result      *SolveResponse
	Err         error

	task *task
}

// JobView is the JSON form of a job as seen by clients.
type JobView struct {
	ID          string         `json:"job_id"`
	Status      JobStatus      `json:"status"`
	Initializer string         `json:"initializer"`
	Strategy    string         `json:"strategy"`
	Submitted   time.Time      `json:"submitted"`
	Started     *time.Time     `json:"started,omitempty"`
	Finished    *time.Time     `json:"finished,omitempty"`
	Steps       int            `json:"steps"`
	Cost        *float64       `json:"cost,omitempty"`
	Result      *SolveResponse `json:"result,omitempty"`
	Error       *errorDetail   `json:"error,omitempty"`
}

// view copies job for a response. Progress comes from the job's recorder so
// running jobs report the cost of their latest step.
func (j *Job) view() JobView {
	v := JobView{
		ID:          j.ID,
		Status:      j.Status,
		Initializer: j.Initializer,
		Strategy:    j.Strategy,
		Submitted:   j.Submitted,
		Started:     j.Started,
		Finished:    j.Finished,
		Result:      j.Result,
	}
	if evals := j.task.recorder.Evaluations(); len(evals) > 0 {
		v.Steps = len(evals)
		cost := evals[len(evals)-1].Cost
		v.Cost = &cost
	}
	if j.Err != nil {
		d := detailOf(apierrors.From(j.Err))
		v.Error = &d
	}
	return v
}

// submit registers a job for t and starts it in the background.
func (s *Server) submit(t *task) (JobView, error) {
	if !s.limiter.Allow() {
		return JobView{}, apierrors.New(http.StatusTooManyRequests, apierrors.CodeRateLimited,
			fmt.Sprintf("more than %v job submissions per second", s.cfg.Solver.SubmitRate))
	}

	job := &Job{
		ID:          uuid.NewString(),
		Status:      JobPending,
		Initializer: t.initializer,
		Strategy:    t.strategy,
		Submitted:   time.Now(),
		task:        t,
	}

	s.jobsMu.Lock()
	if s.closed {
		s.jobsMu.Unlock()
		return JobView{}, apierrors.New(http.StatusServiceUnavailable, apierrors.CodeUnavailable, "server is shutting down")
	}
	s.jobs[job.ID] = job
	s.wg.Add(1)
	view := job.view()
	s.jobsMu.Unlock()

	go s.runJob(job)

	s.logger.Info("job submitted",
		zap.String("job_id", job.ID),
		zap.String("instance", t.problem.Name),
		zap.String("initializer", job.Initializer),
		zap.String("strategy", job.Strategy),
	)
	return view, nil
}

// runJob waits for a free slot, solves and stores the outcome.
func (s *Server) runJob(job *Job) {
	defer s.wg.Done()

	s.slots <- struct{}{}
	defer func() { <-s.slots }()

	logger := s.logger.With(zap.String("job_id", job.ID))

	started := time.Now()
	s.jobsMu.Lock()
	job.Status = JobRunning
	job.Started = &started
	s.jobsMu.Unlock()

	metrics.JobsRunning.Inc()
	defer metrics.JobsRunning.Dec()

	var (
		resp *SolveResponse
		err  error
	)
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("solver panicked: %v", rec)
				logger.Error("job panicked", zap.Any("panic", rec), zap.Stack("stack"))
			}
		}()
		resp, err = job.task.run()
	}()

	finished := time.Now()
	s.jobsMu.Lock()
	job.Finished = &finished
	if err != nil {
		job.Status = JobFailed
		job.Err = err
	} else {
		job.Status = JobCompleted
		job.Result = resp
	}
	s.retire(job.ID)
	s.jobsMu.Unlock()

	if err != nil {
		logger.Warn("job failed", zap.Error(err))
		return
	}
	logger.Info("job completed",
		zap.Float64("cost", resp.Cost),
		zap.Int("steps", resp.Steps),
		zap.Duration("elapsed", finished.Sub(started)),
	)
}

// retire records id as finished and forgets the oldest finished jobs beyond
// SOLVER_KEEP_JOBS. Callers hold jobsMu.
func (s *Server) retire(id string) {
	s.finished = append(s.finished, id)
	for len(s.finished) > s.cfg.Solver.KeepJobs {
		delete(s.jobs, s.finished[0])
		s.finished[0] = ""
		s.finished = s.finished[1:]
	}
}

// lookup returns a snapshot of the job with the given id.
func (s *Server) lookup(id string) (JobView, error) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return JobView{}, apierrors.New(http.StatusNotFound, apierrors.CodeNotFound, fmt.Sprintf("job %q not found", id))
	}
	return job.view(), nil
}

// handleSubmitJob handles POST /api/v1/jobs.
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Jobs outlive the request, so they log through the server logger.
	t, err := s.prepare(req, s.logger)
	if err != nil {
		writeError(w, r, err)
		return
	}

	view, err := s.submit(t)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/jobs/"+view.ID)
	writeJSON(w, http.StatusAccepted, view)
}

// handleJobStatus handles GET /api/v1/jobs/{id}.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	view, err := s.lookup(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
