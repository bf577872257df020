package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/schrebra/storeappx/internal/apps"
	"github.com/schrebra/storeappx/internal/arch"
	"github.com/schrebra/storeappx/internal/batch"
	"github.com/schrebra/storeappx/internal/catalog"
	"github.com/schrebra/storeappx/internal/install"
	"github.com/schrebra/storeappx/internal/version"
)

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": version.Service,
		"version": version.Version,
		"status":  "running",
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": version.Service,
		"version": version.Version,
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	activeID := ""
	activeState := batch.StateIdle
	if entry, ok := s.runs.get(""); ok && !entry.run.State().Terminal() {
		activeID = entry.run.ID()
		activeState = entry.run.State()
	}
	c.JSON(http.StatusOK, gin.H{
		"metrics":   s.metrics.GetSnapshot(),
		"active":    activeID,
		"state":     activeState,
		"apps":      len(s.catalog),
		"endpoint":  s.cfg.Catalog.Endpoint,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleListApps(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"apps":  s.catalog,
		"count": len(s.catalog),
	})
}

type resolveRequest struct {
	Reference    string `json:"reference"`
	Architecture string `json:"architecture"`
}

func (s *Server) handleResolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference is required"})
		return
	}
	pattern, err := arch.Parse(req.Architecture)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	links, err := s.resolver.Resolve(c.Request.Context(), req.Reference)
	if err != nil {
		s.metrics.RecordResolution(false, 0)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	matched := catalog.SelectArchitecture(links, pattern, arch.Detect())
	s.metrics.RecordResolution(true, len(links))

	c.JSON(http.StatusOK, gin.H{
		"reference":    req.Reference,
		"architecture": string(arch.Normalize(pattern, arch.Detect())),
		"links":        matched,
		"count":        len(matched),
		"total":        len(links),
	})
}

type startRunRequest struct {
	Apps         []string `json:"apps"`
	URL          string   `json:"url"`
	Architecture string   `json:"architecture"`
	Destination  string   `json:"destination"`
}

func (s *Server) handleStartRun(c *gin.Context) {
	var req startRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	if (len(req.Apps) == 0) == (req.URL == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provide either apps or url"})
		return
	}
	if req.Architecture == "" {
		req.Architecture = s.cfg.Download.Architecture
	}
	pattern, err := arch.Parse(req.Architecture)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Destination == "" {
		req.Destination = s.cfg.Download.Destination
	}

	batchReq := batch.Request{
		Destination:  req.Destination,
		Architecture: pattern,
	}
	if req.URL != "" {
		// A custom reference writes straight into the destination.
		batchReq.Targets = []batch.Target{{Name: "custom", Reference: req.URL}}
		batchReq.Flat = true
	} else {
		for _, key := range req.Apps {
			app, ok := apps.Find(s.catalog, key)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown app: " + key})
				return
			}
			batchReq.Targets = append(batchReq.Targets, batch.Target{
				Name:      app.Name,
				Reference: app.Reference,
			})
		}
	}

	// The run must outlive this request, so it is not tied to the
	// request context.
	entry, err := s.runs.start(context.Background(), batchReq)
	if errors.Is(err, ErrRunActive) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.metrics.RunStarted()
	go s.watch(entry)

	names := make([]string, 0, len(batchReq.Targets))
	for _, t := range batchReq.Targets {
		names = append(names, t.Name)
	}
	c.JSON(http.StatusCreated, gin.H{
		"run_id":      entry.run.ID(),
		"state":       entry.run.State(),
		"targets":     names,
		"destination": batchReq.Destination,
	})
}

// watch forwards a run's events to its feed and records metrics until the
// run ends.
func (s *Server) watch(entry *runEntry) {
	run := entry.run
	for ev := range run.Events() {
		if ev.Kind == batch.EventFileProgress {
			s.metrics.RecordDownload(ev.Error == "", ev.Bytes)
		}
		entry.feed.publish(ev)
	}
	res := run.Wait()
	entry.feed.close()
	s.metrics.RunFinished(string(res.State))
	s.metrics.RecordSkips(res.FilesSkipped)
	s.log.Info("run finished",
		zap.String("run", run.ID()),
		zap.String("state", string(res.State)),
		zap.Int("downloaded", res.FilesDownloaded),
		zap.Int("skipped", res.FilesSkipped),
		zap.Int("errors", len(res.Errors)))
}

func (s *Server) handleListRuns(c *gin.Context) {
	entries := s.runs.list()
	runs := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		runs = append(runs, gin.H{
			"id":         e.run.ID(),
			"state":      e.run.State(),
			"started_at": e.run.Started().UTC(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

func (s *Server) handleGetRun(c *gin.Context) {
	entry, ok := s.runs.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such run"})
		return
	}
	c.JSON(http.StatusOK, runJSON(entry))
}

func (s *Server) handleCancelRun(c *gin.Context) {
	entry, ok := s.runs.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such run"})
		return
	}
	entry.run.Cancel()
	c.JSON(http.StatusAccepted, gin.H{
		"id":    entry.run.ID(),
		"state": entry.run.State(),
	})
}

func runJSON(entry *runEntry) gin.H {
	run := entry.run
	body := gin.H{
		"id":          run.ID(),
		"state":       run.State(),
		"started_at":  run.Started().UTC(),
		"destination": entry.req.Destination,
	}
	if res, done := run.Result(); done {
		errs := make([]string, 0, len(res.Errors))
		for _, e := range res.Errors {
			errs = append(errs, e.Error())
		}
		body["result"] = gin.H{
			"state":             res.State,
			"no_work_needed":    res.NoWorkNeeded(),
			"partial_failure":   res.Partial(),
			"targets_attempted": res.TargetsAttempted,
			"targets_with_work": res.TargetsWithWork,
			"files_downloaded":  res.FilesDownloaded,
			"files_skipped":     res.FilesSkipped,
			"duration_seconds":  res.Duration.Seconds(),
			"errors":            errs,
		}
	}
	return body
}

type installRequest struct {
	Dir     string `json:"dir"`
	Recurse bool   `json:"recurse"`
}

func (s *Server) handleInstall(c *gin.Context) {
	var req installRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Dir == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dir is required"})
		return
	}

	var (
		results []install.Result
		err     error
	)
	if req.Recurse {
		results, err = s.installer.InstallTree(c.Request.Context(), req.Dir)
	} else {
		var res install.Result
		res, err = s.installer.InstallDirectory(c.Request.Context(), req.Dir)
		results = []install.Result{res}
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]gin.H, 0, len(results))
	for _, res := range results {
		s.metrics.RecordInstalls(res.Installed, res.Failed)
		errs := make([]string, 0, len(res.Errors))
		for _, e := range res.Errors {
			if errors.Is(e, install.ErrUnsupportedPlatform) {
				c.JSON(http.StatusNotImplemented, gin.H{"error": install.ErrUnsupportedPlatform.Error()})
				return
			}
			errs = append(errs, e.Error())
		}
		out = append(out, gin.H{
			"dir":       res.Dir,
			"installed": res.Installed,
			"failed":    res.Failed,
			"errors":    errs,
		})
	}
	c.JSON(http.StatusOK, gin.H{"results": out})
}
