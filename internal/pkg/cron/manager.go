package cron

import (
	"Inkwell/internal/api/config"
	"Inkwell/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine          *cron.Cron
	cfg             config.CronConfig
	commentCountJob *job.CommentCountJob
	postViewJob     *job.PostViewJob
	renderCacheJob  *job.RenderCacheJob
}

func NewCronManager(
	cfg config.CronConfig,
	commentCountJob *job.CommentCountJob,
	postViewJob *job.PostViewJob,
	renderCacheJob *job.RenderCacheJob,
) *Manager {
	return &Manager{
		engine:          cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger))),
		cfg:             cfg,
		commentCountJob: commentCountJob,
		postViewJob:     postViewJob,
		renderCacheJob:  renderCacheJob,
	}
}

// RegisterJobs 注册定时任务，表达式为空的任务不启用
func (s *Manager) RegisterJobs() error {
	jobs := []struct {
		name string
		spec string
		job  cron.Job
	}{
		{"comment_count", s.cfg.CommentCount, s.commentCountJob},
		{"post_view", s.cfg.PostView, s.postViewJob},
		{"render_cache", s.cfg.RenderCache, s.renderCacheJob},
	}
	for _, j := range jobs {
		if j.spec == "" {
			log.Warn("cron job disabled", "job", j.name)
			continue
		}
		if _, err := s.engine.AddJob(j.spec, j.job); err != nil {
			return err
		}
	}
	return nil
}

// Run 注册并启动，任一表达式非法则整体不启动
func (s *Manager) Run() error {
	if err := s.RegisterJobs(); err != nil {
		return err
	}
	log.Info("cron engine started", "jobs", len(s.engine.Entries()))
	s.engine.Start()
	return nil
}

// Stop 等待正在执行的任务结束
func (s *Manager) Stop() {
	log.Info("cron engine stopping")
	<-s.engine.Stop().Done()
}
