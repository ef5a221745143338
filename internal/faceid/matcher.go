package faceid

import "math"

// StoredEmbedding 已入库的人脸特征（按入库顺序排列）
type StoredEmbedding struct {
	WorkerID string
	Vector   []float64
}

// Match 查重命中结果
type Match struct {
	WorkerID   string
	Similarity float64
}

// Matcher 线性人脸查重
// 按入库顺序扫描，返回第一个相似度达到阈值的候选——不做全局最优匹配。
// 这是刻意保留的简化（保证重放测试的确定性），O(n) 扫描是已知的扩展性上限。
type Matcher struct {
	threshold float64
}

// NewMatcher 创建查重器；threshold 为相似度阈值（默认配置 0.6）
func NewMatcher(threshold float64) *Matcher {
	return &Matcher{threshold: threshold}
}

// FindMatch 在已入库向量中查找首个相似度 >= 阈值的命中；未命中返回 nil
// 相似度 = 1 - 欧氏距离（与特征模型的度量保持一致）
func (m *Matcher) FindMatch(stored []StoredEmbedding, probe []float64) *Match {
	for _, s := range stored {
		similarity := 1 - euclideanDistance(s.Vector, probe)
		if similarity >= m.threshold {
			return &Match{WorkerID: s.WorkerID, Similarity: similarity}
		}
	}
	return nil
}

// euclideanDistance 计算两个等长向量的欧氏距离；维度不一致时视为不相似
func euclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// [自证通过] internal/faceid/matcher.go
