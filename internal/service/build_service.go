package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gsource-auth/internal/core/scm"
	"gsource-auth/internal/dto"
	"gsource-auth/internal/model"
	"gsource-auth/internal/pkg/logger"
	"gsource-auth/internal/repository"
	pkgErrors "gsource-auth/pkg/errors"
)

// BuildService 构建服务接口
type BuildService interface {
	Notify(ctx context.Context, req *dto.BuildNotifyRequest) (*dto.BuildResponse, error)
	GetByID(ctx context.Context, id int64) (*dto.BuildResponse, error)
	GetByJobAndNumber(ctx context.Context, job string, buildNumber int) (*dto.BuildResponse, error)
	ListSourceMetadata(ctx context.Context, buildID int64) ([]dto.SourceMetadataResponse, error)
}

type buildService struct {
	tx         repository.TxManager
	buildRepo  repository.BuildRepository
	sourceRepo repository.SourceMetadataRepository
	listener   *scm.Listener
}

// NewBuildService 创建构建服务实例
func NewBuildService(
	tx repository.TxManager,
	buildRepo repository.BuildRepository,
	sourceRepo repository.SourceMetadataRepository,
	listener *scm.Listener,
) BuildService {
	return &buildService{
		tx:         tx,
		buildRepo:  buildRepo,
		sourceRepo: sourceRepo,
		listener:   listener,
	}
}

// Notify 处理构建通知：保存构建记录，重新提取并保存来源
func (s *buildService) Notify(ctx context.Context, req *dto.BuildNotifyRequest) (*dto.BuildResponse, error) {
	log := logger.Log.With(zap.String("handler", "BuildService.Notify"), zap.String("job", req.Job)).Sugar()
	log.Infof("收到构建通知: %s #%d %s", req.Job, req.BuildNumber, req.BuildStatus)

	raw, err := json.Marshal(req)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeBadRequest, "序列化构建通知失败", err)
	}

	// 构建记录与来源在同一事务中写入，失败时保留旧的来源
	var build *model.Build
	var recorded int
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		build, err = s.saveBuild(ctx, req, raw)
		if err != nil {
			return err
		}

		// 重复通知覆盖旧的来源记录
		if err := s.sourceRepo.DeleteByBuild(ctx, build.ID); err != nil {
			return err
		}

		run := &scm.Run{Number: req.BuildNumber, Actions: toActions(req.Actions)}
		container := &buildContainer{repo: s.sourceRepo, buildID: build.ID}
		if err := s.listener.OnChangeLogParsed(ctx, run, toSCM(req.SCM), toChangeLog(req.ChangeLog), container); err != nil {
			return err
		}
		recorded = container.seq
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("构建来源已记录: build_id=%d, sources=%d", build.ID, recorded)
	return s.GetByID(ctx, build.ID)
}

// saveBuild 按 job + 构建号 upsert
func (s *buildService) saveBuild(ctx context.Context, req *dto.BuildNotifyRequest, raw []byte) (*model.Build, error) {
	build, err := s.buildRepo.FindByJobAndNumber(ctx, req.Job, req.BuildNumber)
	switch {
	case errors.Is(err, pkgErrors.ErrRecordNotFound):
		build = &model.Build{Job: req.Job, BuildNumber: req.BuildNumber}
	case err != nil:
		return nil, err
	}
	build.ProjectID = req.ProjectID
	build.BuildStatus = lo.Ternary(req.BuildStatus == "", "success", req.BuildStatus)
	build.BuildLink = req.BuildLink
	build.SCMJSON = datatypes.JSON(raw)

	if build.ID == 0 {
		err = s.buildRepo.Create(ctx, build)
	} else {
		err = s.buildRepo.Update(ctx, build)
	}
	if err != nil {
		return nil, err
	}
	return build, nil
}

func (s *buildService) GetByID(ctx context.Context, id int64) (*dto.BuildResponse, error) {
	build, err := s.buildRepo.FindByID(ctx, id, repository.WithSources())
	if err != nil {
		return nil, err
	}
	return toBuildResponse(build), nil
}

func (s *buildService) GetByJobAndNumber(ctx context.Context, job string, buildNumber int) (*dto.BuildResponse, error) {
	build, err := s.buildRepo.FindByJobAndNumber(ctx, job, buildNumber)
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, build.ID)
}

// ListSourceMetadata 构建记录的来源，按提取顺序
func (s *buildService) ListSourceMetadata(ctx context.Context, buildID int64) ([]dto.SourceMetadataResponse, error) {
	if _, err := s.buildRepo.FindByID(ctx, buildID); err != nil {
		return nil, err
	}
	list, err := s.sourceRepo.ListByBuild(ctx, buildID)
	if err != nil {
		return nil, err
	}
	return lo.Map(list, func(m *model.SourceMetadata, _ int) dto.SourceMetadataResponse {
		return toSourceMetadataResponse(*m)
	}), nil
}

// buildContainer 把来源写入某个构建，seq 保持提取顺序
type buildContainer struct {
	repo    repository.SourceMetadataRepository
	buildID int64
	seq     int
}

func (c *buildContainer) Add(ctx context.Context, m scm.SourceMetadata) error {
	c.seq++
	err := c.repo.Add(ctx, &model.SourceMetadata{
		BuildID:    c.buildID,
		Seq:        c.seq,
		SCM:        m.SCM,
		RepoURL:    m.RepoURL,
		Branch:     m.Branch,
		Revision:   m.Revision,
		LastAuthor: m.LastAuthor,
	})
	if err != nil {
		return fmt.Errorf("保存来源 %s 失败: %w", m, err)
	}
	return nil
}

func toActions(spec dto.BuildActionsSpec) []any {
	actions := make([]any, 0, len(spec.Git)+len(spec.Mercurial))
	for _, g := range spec.Git {
		actions = append(actions, &scm.GitBuildData{
			RemoteURLs:        g.RemoteURLs,
			LastBuiltRevision: g.LastBuiltRevision,
			BuildsByBranch:    g.BuildsByBranch,
		})
	}
	for _, m := range spec.Mercurial {
		actions = append(actions, &scm.MercurialTagAction{Subdir: m.Subdir, ID: m.ID})
	}
	return actions
}

func toChangeLog(entries []dto.ChangeLogSpec) scm.ChangeLog {
	return scm.ChangeLog{
		Entries: lo.Map(entries, func(e dto.ChangeLogSpec, _ int) scm.ChangeLogEntry {
			return scm.ChangeLogEntry{AuthorID: e.AuthorID, CommitID: e.CommitID, Message: e.Message}
		}),
	}
}

func toSCM(spec *dto.SCMSpec) scm.SCM {
	if spec == nil {
		return nil
	}
	switch spec.Type {
	case scm.TypeGit:
		return &scm.GitSCM{URLs: spec.URLs}
	case scm.TypeMercurial:
		return &scm.MercurialSCM{Source: spec.Source, Branch: spec.Branch, Subdir: spec.Subdir}
	case scm.TypeMultiSCM:
		inner := make([]scm.SCM, 0, len(spec.SCMs))
		for i := range spec.SCMs {
			if s := toSCM(&spec.SCMs[i]); s != nil {
				inner = append(inner, s)
			}
		}
		return &scm.MultiSCM{SCMs: inner}
	default:
		return nil
	}
}

func toBuildResponse(b *model.Build) *dto.BuildResponse {
	return &dto.BuildResponse{
		ID:          b.ID,
		Job:         b.Job,
		ProjectID:   b.ProjectID,
		BuildNumber: b.BuildNumber,
		BuildStatus: b.BuildStatus,
		BuildLink:   b.BuildLink,
		Sources: lo.Map(b.Sources, func(m model.SourceMetadata, _ int) dto.SourceMetadataResponse {
			return toSourceMetadataResponse(m)
		}),
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
	}
}

func toSourceMetadataResponse(m model.SourceMetadata) dto.SourceMetadataResponse {
	return dto.SourceMetadataResponse{
		SCM:        m.SCM,
		RepoURL:    m.RepoURL,
		Branch:     m.Branch,
		Revision:   m.Revision,
		LastAuthor: m.LastAuthor,
	}
}
