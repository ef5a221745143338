package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pokerist/ubuntuhik/internal/client/hikcentral"
	"github.com/pokerist/ubuntuhik/internal/faceid"
	"github.com/pokerist/ubuntuhik/internal/model"
	"github.com/pokerist/ubuntuhik/internal/repository"
)

// ────────── Mock WorkerRepository ──────────

type mockWorkerRepo struct {
	records map[string]*model.Worker // key: worker_id
	order   []string
	seq     int64

	getErr error
}

func newMockWorkerRepo() *mockWorkerRepo {
	return &mockWorkerRepo{records: make(map[string]*model.Worker)}
}

func (m *mockWorkerRepo) tick() time.Time {
	m.seq++
	return time.Unix(m.seq, 0)
}

func (m *mockWorkerRepo) Create(ctx context.Context, worker *model.Worker) error {
	cp := *worker
	cp.CreatedAt = m.tick()
	cp.UpdatedAt = cp.CreatedAt
	if _, ok := m.records[cp.WorkerID]; !ok {
		m.order = append(m.order, cp.WorkerID)
	}
	m.records[cp.WorkerID] = &cp
	return nil
}

func (m *mockWorkerRepo) GetByWorkerID(ctx context.Context, workerID string) (*model.Worker, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	record, ok := m.records[workerID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *record
	return &cp, nil
}

func (m *mockWorkerRepo) GetByNationalID(ctx context.Context, nationalID string) (*model.Worker, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var latest *model.Worker
	for _, id := range m.order {
		r := m.records[id]
		if r.NationalID != nationalID {
			continue
		}
		if latest == nil || r.UpdatedAt.After(latest.UpdatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *mockWorkerRepo) Update(ctx context.Context, worker *model.Worker) error {
	cp := *worker
	cp.UpdatedAt = m.tick()
	if _, ok := m.records[cp.WorkerID]; !ok {
		m.order = append(m.order, cp.WorkerID)
	}
	m.records[cp.WorkerID] = &cp
	return nil
}

func (m *mockWorkerRepo) List(ctx context.Context, filters *repository.WorkerListFilters, offset, limit int) ([]model.Worker, int64, error) {
	all, _ := m.ListAll(ctx)
	return all, int64(len(all)), nil
}

func (m *mockWorkerRepo) ListAll(ctx context.Context) ([]model.Worker, error) {
	result := make([]model.Worker, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, *m.records[id])
	}
	return result, nil
}

// ────────── Mock FaceEmbeddingRepository ──────────

type mockFaceEmbeddingRepo struct {
	embeddings []model.FaceEmbedding
}

func (m *mockFaceEmbeddingRepo) Create(ctx context.Context, embedding *model.FaceEmbedding) error {
	for _, e := range m.embeddings {
		if e.WorkerID == embedding.WorkerID {
			return fmt.Errorf("UNIQUE constraint failed: face_embeddings.worker_id")
		}
	}
	cp := *embedding
	cp.ID = int64(len(m.embeddings) + 1)
	m.embeddings = append(m.embeddings, cp)
	return nil
}

func (m *mockFaceEmbeddingRepo) ListAll(ctx context.Context) ([]model.FaceEmbedding, error) {
	result := make([]model.FaceEmbedding, len(m.embeddings))
	copy(result, m.embeddings)
	return result, nil
}

func (m *mockFaceEmbeddingRepo) GetByWorkerID(ctx context.Context, workerID string) (*model.FaceEmbedding, error) {
	for i := range m.embeddings {
		if m.embeddings[i].WorkerID == workerID {
			cp := m.embeddings[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ────────── Mock DirectoryClient ──────────

type addPersonCall struct {
	profile    hikcentral.PersonProfile
	faceBase64 string
}

type updatePersonCall struct {
	personID  string
	profile   hikcentral.PersonProfile
	validFrom string
	validTo   string
}

type mockDirectory struct {
	addCalls     []addPersonCall
	updateCalls  []updatePersonCall
	deleteCalls  []string
	groupAdds    []string
	groupRemoves []string

	nextPersonID int

	addErr         error
	updateErr      error
	deleteErr      error
	groupAddErr    error
	groupRemoveErr error
}

func (m *mockDirectory) AddPerson(ctx context.Context, profile *hikcentral.PersonProfile, faceBase64 string) (string, error) {
	if m.addErr != nil {
		return "", m.addErr
	}
	m.addCalls = append(m.addCalls, addPersonCall{profile: *profile, faceBase64: faceBase64})
	m.nextPersonID++
	return fmt.Sprintf("p%d", m.nextPersonID), nil
}

func (m *mockDirectory) UpdatePerson(ctx context.Context, personID string, profile *hikcentral.PersonProfile, validFrom, validTo string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updateCalls = append(m.updateCalls, updatePersonCall{
		personID: personID, profile: *profile, validFrom: validFrom, validTo: validTo,
	})
	return nil
}

func (m *mockDirectory) DeletePersonFull(ctx context.Context, personID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleteCalls = append(m.deleteCalls, personID)
	return nil
}

func (m *mockDirectory) AddToPrivilegeGroup(ctx context.Context, personID string) error {
	if m.groupAddErr != nil {
		return m.groupAddErr
	}
	m.groupAdds = append(m.groupAdds, personID)
	return nil
}

func (m *mockDirectory) RemoveFromPrivilegeGroup(ctx context.Context, personID string) error {
	if m.groupRemoveErr != nil {
		return m.groupRemoveErr
	}
	m.groupRemoves = append(m.groupRemoves, personID)
	return nil
}

// ────────── Mock StatusReporter ──────────

type reportCall struct {
	workerID      string
	status        string
	externalID    string
	blockedReason string
}

type mockReporter struct {
	reports []reportCall
	err     error
}

func (m *mockReporter) UpdateWorkerStatus(ctx context.Context, workerID, status, externalID, blockedReason string) error {
	m.reports = append(m.reports, reportCall{
		workerID: workerID, status: status, externalID: externalID, blockedReason: blockedReason,
	})
	return m.err
}

func (m *mockReporter) last() reportCall {
	if len(m.reports) == 0 {
		return reportCall{}
	}
	return m.reports[len(m.reports)-1]
}

// ────────── Mock PhotoStore ──────────

type mockPhotos struct {
	faceErr   error
	idCardErr error
}

func facePathOf(workerID string) string { return "faces/" + workerID + ".jpg" }

func (m *mockPhotos) DownloadFace(ctx context.Context, url, workerID string) (string, error) {
	if m.faceErr != nil {
		return "", m.faceErr
	}
	return facePathOf(workerID), nil
}

func (m *mockPhotos) DownloadIDCard(ctx context.Context, url, workerID string) (string, error) {
	if m.idCardErr != nil {
		return "", m.idCardErr
	}
	return "id_cards/" + workerID + ".jpg", nil
}

func (m *mockPhotos) ReadBase64(path string) (string, error) {
	return "b64(" + path + ")", nil
}

func (m *mockPhotos) ReadBytes(path string) ([]byte, error) {
	return []byte(path), nil
}

// ────────── Mock Embedder ──────────

// mockEmbedder 按人脸照路径返回预置向量；noFace 集合中的路径返回 ErrNoFace
type mockEmbedder struct {
	vectors map[string][]float64
	noFace  map[string]bool
	err     error
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{
		vectors: make(map[string][]float64),
		noFace:  make(map[string]bool),
	}
}

func (m *mockEmbedder) Embed(ctx context.Context, imageBytes []byte) ([]float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	path := string(imageBytes)
	if m.noFace[path] {
		return nil, faceid.ErrNoFace
	}
	v, ok := m.vectors[path]
	if !ok {
		return nil, errors.New("测试未预置该图片的向量: " + path)
	}
	return v, nil
}

// [自证通过] internal/service/mock_deps_test.go
