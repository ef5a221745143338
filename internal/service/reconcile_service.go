package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pokerist/ubuntuhik/internal/client/hikcentral"
	"github.com/pokerist/ubuntuhik/internal/client/upstream"
	"github.com/pokerist/ubuntuhik/internal/faceid"
	"github.com/pokerist/ubuntuhik/internal/model"
	"github.com/pokerist/ubuntuhik/internal/repository"
)

// 终态拒绝原因（回报上游，面向工人的本地化文案）
const (
	reasonNoFace           = "لم يتم اكتشاف وجه في الصورة"
	reasonDuplicateBlocked = "تطابق مع عامل محظور سابقاً: %s"
)

// DirectoryClient 门禁平台操作集（由 hikcentral.Client 实现）
type DirectoryClient interface {
	AddPerson(ctx context.Context, profile *hikcentral.PersonProfile, faceBase64 string) (string, error)
	UpdatePerson(ctx context.Context, personID string, profile *hikcentral.PersonProfile, validFrom, validTo string) error
	DeletePersonFull(ctx context.Context, personID string) error
	AddToPrivilegeGroup(ctx context.Context, personID string) error
	RemoveFromPrivilegeGroup(ctx context.Context, personID string) error
}

// StatusReporter 上游状态回报（由 upstream.Client 实现）
type StatusReporter interface {
	UpdateWorkerStatus(ctx context.Context, workerID, status, externalID, blockedReason string) error
}

// PhotoStore 工人照片缓存（由 imagestore.Store 实现）
type PhotoStore interface {
	DownloadFace(ctx context.Context, url, workerID string) (string, error)
	DownloadIDCard(ctx context.Context, url, workerID string) (string, error)
	ReadBase64(path string) (string, error)
	ReadBytes(path string) ([]byte, error)
}

// ReconcileService 对账状态机：对单个工人/单个事件做出并执行决策
type ReconcileService interface {
	ProcessWorker(ctx context.Context, w *upstream.WorkerPayload) error
	ProcessEvent(ctx context.Context, ev *upstream.LifecycleEvent) error
}

type reconcileService struct {
	repo        *repository.Repository
	directory   DirectoryClient
	reporter    StatusReporter
	photos      PhotoStore
	embedder    faceid.Embedder
	matcher     *faceid.Matcher
	faceEnabled bool
	logger      *zap.Logger
}

// NewReconcileService 创建对账状态机
// faceEnabled=false 时退化为非人脸变体（embedder/matcher 可为 nil）
func NewReconcileService(
	repo *repository.Repository,
	directory DirectoryClient,
	reporter StatusReporter,
	photos PhotoStore,
	embedder faceid.Embedder,
	matcher *faceid.Matcher,
	faceEnabled bool,
	logger *zap.Logger,
) ReconcileService {
	return &reconcileService{
		repo:        repo,
		directory:   directory,
		reporter:    reporter,
		photos:      photos,
		embedder:    embedder,
		matcher:     matcher,
		faceEnabled: faceEnabled,
		logger:      logger,
	}
}

// ────────────────────── ProcessWorker ──────────────────────

// ProcessWorker 对单个工人执行一次幂等对账
// 幂等键为上游 ID，自然键为身份证号；台账是幂等判定的唯一依据
func (s *reconcileService) ProcessWorker(ctx context.Context, w *upstream.WorkerPayload) error {
	logger := s.logger.With(
		zap.String("worker_id", w.ID),
		zap.String("national_id", w.NationalID),
	)
	logger.Info("开始处理工人",
		zap.String("name", w.FullName),
		zap.Bool("blocked", w.Blocked),
	)

	existing, err := s.findByNationalID(ctx, w.NationalID)
	if err != nil {
		return err
	}

	// ── 封禁分支（无需照片与人脸检测）──
	if w.Blocked {
		in := DecisionInput{Blocked: true}
		if existing != nil {
			in.HasLedgerEntry = true
			in.HasLiveRemoteID = existing.HasRemoteIdentity()
			in.Tombstoned = existing.RemoteDeleted
		}
		return s.applyBlocked(ctx, Decide(in), w, existing, logger)
	}

	// ── 照片下载（失败视为临时错误，跳过本轮）──
	facePath, err := s.photos.DownloadFace(ctx, w.FacePhotoURL, w.ID)
	if err != nil {
		return fmt.Errorf("下载人脸照失败: %w", err)
	}
	idCardPath, err := s.photos.DownloadIDCard(ctx, w.IDCardURL, w.ID)
	if err != nil {
		return fmt.Errorf("下载证件照失败: %w", err)
	}

	// ── 人脸检测与查重 ──
	in := DecisionInput{FaceAware: s.faceEnabled}
	if existing != nil {
		in.HasLedgerEntry = true
		in.HasLiveRemoteID = existing.HasRemoteIdentity()
		in.Tombstoned = existing.RemoteDeleted
		in.WindowExtends = windowExtends(existing.ValidFrom, existing.ValidTo, w.ValidFrom, w.ValidTo)
	}

	var probe []float64
	var matched *model.Worker
	if s.faceEnabled {
		imageBytes, err := s.photos.ReadBytes(facePath)
		if err != nil {
			return err
		}
		probe, err = s.embedder.Embed(ctx, imageBytes)
		switch {
		case errors.Is(err, faceid.ErrNoFace):
			in.Face = FaceMissing
		case err != nil:
			return fmt.Errorf("人脸特征提取失败: %w", err)
		default:
			matched, err = s.findFaceMatch(ctx, probe)
			if err != nil {
				return err
			}
			if matched != nil {
				if matched.Blocked {
					in.Face = FaceDuplicateBlocked
				} else {
					in.Face = FaceDuplicateActive
					in.MatchedHasLiveRemoteID = matched.HasRemoteIdentity()
				}
			}
		}
	}

	decision := Decide(in)

	switch decision.Kind {
	case DecisionRejectNoFace:
		logger.Warn("未检出人脸，终态拒绝")
		s.report(ctx, w.ID, model.StatusBlocked, "", reasonNoFace, logger)
		return nil

	case DecisionRejectDuplicateBlocked:
		logger.Warn("人脸命中已封禁身份，终态拒绝",
			zap.String("matched_worker_id", matched.WorkerID),
		)
		s.report(ctx, w.ID, model.StatusBlocked, "",
			fmt.Sprintf(reasonDuplicateBlocked, matched.FullName), logger)
		return nil

	case DecisionUpdateDuplicateActive:
		return s.applyDuplicateActive(ctx, w, existing, matched, facePath, idCardPath, logger)

	case DecisionUpdateExisting:
		return s.applyUpdate(ctx, w, existing, facePath, idCardPath, logger)

	case DecisionAlreadyProcessed:
		logger.Info("已处理且有效期未扩展，跳过")
		return nil

	default: // DecisionCreateNew
		return s.applyCreate(ctx, w, existing, probe, facePath, idCardPath, logger)
	}
}

// ────────────────────── ProcessEvent ──────────────────────

// ProcessEvent 将生命周期事件展开为内嵌工人并映射到封禁/解封两个有效分支
// 事件是幂等命令：台账当前状态 + 事件自带的封禁语义完全决定下一步动作
func (s *reconcileService) ProcessEvent(ctx context.Context, ev *upstream.LifecycleEvent) error {
	logger := s.logger.With(zap.String("event_type", ev.Type), zap.String("event_id", ev.ID))
	logger.Info("开始处理事件", zap.Int("workers", len(ev.Workers)))

	var firstErr error
	for i := range ev.Workers {
		w := ev.Workers[i]

		var err error
		switch ev.Type {
		case upstream.EventWorkerCreated, upstream.EventWorkersBulkCreated,
			upstream.EventWorkerUnblocked, upstream.EventUnitWorkersUnblocked:
			w.Blocked = false
			err = s.ProcessWorker(ctx, &w)

		case upstream.EventWorkerBlocked, upstream.EventUnitWorkersBlocked:
			w.Blocked = true
			err = s.ProcessWorker(ctx, &w)

		case upstream.EventWorkerDeleted, upstream.EventWorkerRevoked,
			upstream.EventUserDeletedWorkersDeleted, upstream.EventUserExpiredWorkersDeleted:
			// 删除/吊销事件无条件硬删远端并落墓碑，以身份证号为键
			// （删除事件不保证携带原始内部 ID）
			err = s.hardDeleteByNationalID(ctx, &w, logger)

		default:
			logger.Warn("未知事件类型，跳过")
			continue
		}

		if err != nil {
			logger.Error("事件内工人处理失败",
				zap.String("national_id", w.NationalID), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// ────────────────────── 决策执行 ──────────────────────

// applyBlocked 执行封禁分支的三个变体
func (s *reconcileService) applyBlocked(ctx context.Context, d Decision, w *upstream.WorkerPayload, existing *model.Worker, logger *zap.Logger) error {
	switch d.Kind {
	case DecisionBlockDeleteRemote:
		logger.Info("封禁工人，删除远端身份",
			zap.String("person_id", existing.RemotePersonID))

		// 先移出权限组（软失败），再硬删人员
		if err := s.directory.RemoveFromPrivilegeGroup(ctx, existing.RemotePersonID); err != nil {
			logger.Warn("移出权限组失败（继续删除人员）", zap.Error(err))
		}
		if err := s.directory.DeletePersonFull(ctx, existing.RemotePersonID); err != nil {
			return fmt.Errorf("删除远端人员失败: %w", err)
		}

		existing.Blocked = true
		existing.RemoteDeleted = true
		existing.Status = model.StatusBlocked
		if err := s.repo.Worker.Update(ctx, existing); err != nil {
			return fmt.Errorf("落墓碑失败: %w", err)
		}

	case DecisionBlockAlreadyTombstoned:
		logger.Info("封禁工人已是墓碑，仅回报状态")

	case DecisionBlockLocalOnly:
		logger.Info("封禁工人从未建档，直接落本地墓碑")
		if existing == nil {
			record := &model.Worker{
				WorkerID:      w.ID,
				NationalID:    w.NationalID,
				FullName:      w.FullName,
				Status:        model.StatusBlocked,
				Blocked:       true,
				RemoteDeleted: true,
			}
			if err := s.repo.Worker.Create(ctx, record); err != nil {
				return fmt.Errorf("创建墓碑记录失败: %w", err)
			}
		} else {
			existing.Blocked = true
			existing.RemoteDeleted = true
			existing.Status = model.StatusBlocked
			if err := s.repo.Worker.Update(ctx, existing); err != nil {
				return fmt.Errorf("落墓碑失败: %w", err)
			}
		}
	}

	s.report(ctx, w.ID, model.StatusBlocked, "", "", logger)
	return nil
}

// applyDuplicateActive 人脸命中存活身份：按命中身份更新远端档案，
// 并把命中者的远端 ID 写回本工人的台账与上游状态
func (s *reconcileService) applyDuplicateActive(ctx context.Context, w *upstream.WorkerPayload, existing, matched *model.Worker, facePath, idCardPath string, logger *zap.Logger) error {
	logger.Info("人脸命中存活身份，按命中身份更新",
		zap.String("matched_worker_id", matched.WorkerID),
		zap.String("person_id", matched.RemotePersonID),
	)

	// 远端与台账用同一份合并窗口：后到的短窗不得收缩已授予的有效期。
	// 本工人无台账记录时，以命中者台账中的窗口为已授予窗口。
	granted := matched
	if existing != nil {
		granted = existing
	}
	mergedFrom, mergedTo := mergeWindow(granted.ValidFrom, granted.ValidTo, w.ValidFrom, w.ValidTo)

	profile := profileFromPayload(w)
	if err := s.directory.UpdatePerson(ctx, matched.RemotePersonID, profile, mergedFrom, mergedTo); err != nil {
		return fmt.Errorf("更新远端人员失败: %w", err)
	}

	if existing == nil {
		record := &model.Worker{
			WorkerID:       w.ID,
			NationalID:     w.NationalID,
			FullName:       w.FullName,
			RemotePersonID: matched.RemotePersonID,
			Status:         model.StatusApproved,
			ValidFrom:      mergedFrom,
			ValidTo:        mergedTo,
			FacePath:       facePath,
			IDCardPath:     idCardPath,
		}
		if err := s.repo.Worker.Create(ctx, record); err != nil {
			return fmt.Errorf("写入台账失败: %w", err)
		}
	} else {
		existing.RemotePersonID = matched.RemotePersonID
		existing.FullName = w.FullName
		existing.Status = model.StatusApproved
		existing.Blocked = false
		existing.RemoteDeleted = false
		existing.ValidFrom, existing.ValidTo = mergedFrom, mergedTo
		existing.FacePath = facePath
		existing.IDCardPath = idCardPath
		if err := s.repo.Worker.Update(ctx, existing); err != nil {
			return fmt.Errorf("更新台账失败: %w", err)
		}
	}

	s.report(ctx, w.ID, model.StatusApproved, matched.RemotePersonID, "", logger)
	return nil
}

// applyUpdate 台账已有存活远端身份：更新远端档案并合并有效期
func (s *reconcileService) applyUpdate(ctx context.Context, w *upstream.WorkerPayload, existing *model.Worker, facePath, idCardPath string, logger *zap.Logger) error {
	mergedFrom, mergedTo := mergeWindow(existing.ValidFrom, existing.ValidTo, w.ValidFrom, w.ValidTo)

	logger.Info("更新已建档工人",
		zap.String("person_id", existing.RemotePersonID),
		zap.String("valid_from", mergedFrom),
		zap.String("valid_to", mergedTo),
	)

	profile := profileFromPayload(w)
	if err := s.directory.UpdatePerson(ctx, existing.RemotePersonID, profile, mergedFrom, mergedTo); err != nil {
		return fmt.Errorf("更新远端人员失败: %w", err)
	}

	existing.FullName = w.FullName
	existing.Status = model.StatusApproved
	existing.Blocked = false
	existing.RemoteDeleted = false
	existing.ValidFrom = mergedFrom
	existing.ValidTo = mergedTo
	existing.FacePath = facePath
	existing.IDCardPath = idCardPath
	if err := s.repo.Worker.Update(ctx, existing); err != nil {
		return fmt.Errorf("更新台账失败: %w", err)
	}

	s.report(ctx, w.ID, model.StatusApproved, existing.RemotePersonID, "", logger)
	return nil
}

// applyCreate 新建远端身份：建档 → 加权限组（软失败）→ 写台账 → 首次入库人脸特征
func (s *reconcileService) applyCreate(ctx context.Context, w *upstream.WorkerPayload, existing *model.Worker, probe []float64, facePath, idCardPath string, logger *zap.Logger) error {
	faceBase64, err := s.photos.ReadBase64(facePath)
	if err != nil {
		return err
	}

	profile := profileFromPayload(w)
	personID, err := s.directory.AddPerson(ctx, profile, faceBase64)
	if err != nil {
		// 工人留在 pending，下一轮同一决策点重试
		return fmt.Errorf("建档失败: %w", err)
	}

	if err := s.directory.AddToPrivilegeGroup(ctx, personID); err != nil {
		// 人员已存在但未入组：软失败，不回滚建档
		logger.Warn("加入权限组失败", zap.String("person_id", personID), zap.Error(err))
	}

	if existing == nil {
		record := &model.Worker{
			WorkerID:       w.ID,
			NationalID:     w.NationalID,
			FullName:       w.FullName,
			RemotePersonID: personID,
			Status:         model.StatusApproved,
			ValidFrom:      w.ValidFrom,
			ValidTo:        w.ValidTo,
			FacePath:       facePath,
			IDCardPath:     idCardPath,
		}
		if err := s.repo.Worker.Create(ctx, record); err != nil {
			return fmt.Errorf("写入台账失败: %w", err)
		}
	} else {
		// 历史墓碑复活：复用记录，清除墓碑
		existing.WorkerID = w.ID
		existing.RemotePersonID = personID
		existing.FullName = w.FullName
		existing.Status = model.StatusApproved
		existing.Blocked = false
		existing.RemoteDeleted = false
		existing.ValidFrom = w.ValidFrom
		existing.ValidTo = w.ValidTo
		existing.FacePath = facePath
		existing.IDCardPath = idCardPath
		if err := s.repo.Worker.Update(ctx, existing); err != nil {
			return fmt.Errorf("更新台账失败: %w", err)
		}
	}

	// 人脸特征仅在首次建档成功时写入一次
	if s.faceEnabled && len(probe) > 0 {
		if err := s.storeEmbeddingOnce(ctx, w.ID, probe); err != nil {
			logger.Warn("人脸特征入库失败", zap.Error(err))
		}
	}

	s.report(ctx, w.ID, model.StatusApproved, personID, "", logger)
	logger.Info("工人建档完成", zap.String("person_id", personID))
	return nil
}

// hardDeleteByNationalID 删除/吊销事件：无条件硬删远端身份并落墓碑
func (s *reconcileService) hardDeleteByNationalID(ctx context.Context, w *upstream.WorkerPayload, logger *zap.Logger) error {
	existing, err := s.findByNationalID(ctx, w.NationalID)
	if err != nil {
		return err
	}
	if existing == nil {
		logger.Info("删除事件未命中台账，跳过", zap.String("national_id", w.NationalID))
		return nil
	}
	if existing.RemoteDeleted {
		logger.Info("删除事件命中墓碑，跳过", zap.String("national_id", w.NationalID))
		return nil
	}

	if existing.RemotePersonID != "" {
		if err := s.directory.RemoveFromPrivilegeGroup(ctx, existing.RemotePersonID); err != nil {
			logger.Warn("移出权限组失败（继续删除人员）", zap.Error(err))
		}
		if err := s.directory.DeletePersonFull(ctx, existing.RemotePersonID); err != nil {
			return fmt.Errorf("删除远端人员失败: %w", err)
		}
	}

	existing.Blocked = true
	existing.RemoteDeleted = true
	existing.Status = model.StatusBlocked
	if err := s.repo.Worker.Update(ctx, existing); err != nil {
		return fmt.Errorf("落墓碑失败: %w", err)
	}

	logger.Info("删除事件处理完成", zap.String("national_id", w.NationalID))
	return nil
}

// ── 内部辅助方法 ──

func (s *reconcileService) findByNationalID(ctx context.Context, nationalID string) (*model.Worker, error) {
	worker, err := s.repo.Worker.GetByNationalID(ctx, nationalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询台账失败: %w", err)
	}
	return worker, nil
}

// findFaceMatch 对全部已入库特征做线性查重，返回命中工人的台账记录
func (s *reconcileService) findFaceMatch(ctx context.Context, probe []float64) (*model.Worker, error) {
	embeddings, err := s.repo.FaceEmbedding.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("加载人脸特征失败: %w", err)
	}

	stored := make([]faceid.StoredEmbedding, 0, len(embeddings))
	for i := range embeddings {
		vector, err := embeddings[i].Decode()
		if err != nil {
			s.logger.Warn("人脸特征解码失败，跳过",
				zap.String("worker_id", embeddings[i].WorkerID), zap.Error(err))
			continue
		}
		stored = append(stored, faceid.StoredEmbedding{
			WorkerID: embeddings[i].WorkerID,
			Vector:   vector,
		})
	}

	match := s.matcher.FindMatch(stored, probe)
	if match == nil {
		return nil, nil
	}

	s.logger.Info("人脸查重命中",
		zap.String("matched_worker_id", match.WorkerID),
		zap.Float64("similarity", match.Similarity),
	)

	matched, err := s.repo.Worker.GetByWorkerID(ctx, match.WorkerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 特征有记录但台账缺失：按未命中处理
			return nil, nil
		}
		return nil, fmt.Errorf("查询命中工人失败: %w", err)
	}
	return matched, nil
}

// storeEmbeddingOnce 幂等写入人脸特征：已存在则不覆盖
func (s *reconcileService) storeEmbeddingOnce(ctx context.Context, workerID string, vector []float64) error {
	if _, err := s.repo.FaceEmbedding.GetByWorkerID(ctx, workerID); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	encoded, err := model.EncodeVector(vector)
	if err != nil {
		return err
	}
	return s.repo.FaceEmbedding.Create(ctx, &model.FaceEmbedding{
		WorkerID: workerID,
		Vector:   encoded,
	})
}

// report 回报上游状态；失败只记日志，台账才是幂等的事实来源
func (s *reconcileService) report(ctx context.Context, workerID, status, externalID, blockedReason string, logger *zap.Logger) {
	if err := s.reporter.UpdateWorkerStatus(ctx, workerID, status, externalID, blockedReason); err != nil {
		logger.Warn("回报上游状态失败", zap.String("status", status), zap.Error(err))
	}
}

func profileFromPayload(w *upstream.WorkerPayload) *hikcentral.PersonProfile {
	return &hikcentral.PersonProfile{
		NationalID: w.NationalID,
		FullName:   w.FullName,
		Phone:      w.Phone,
		Email:      w.Email,
		UnitNumber: w.UnitNumber,
		ValidFrom:  w.ValidFrom,
		ValidTo:    w.ValidTo,
	}
}

// [自证通过] internal/service/reconcile_service.go
