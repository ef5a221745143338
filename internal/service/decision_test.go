package service

import "testing"

// ── 决策表优先级 ──

func TestDecidePrecedence(t *testing.T) {
	tests := []struct {
		name string
		in   DecisionInput
		want DecisionKind
	}{
		{
			name: "封禁且持有存活远端身份",
			in:   DecisionInput{Blocked: true, HasLedgerEntry: true, HasLiveRemoteID: true},
			want: DecisionBlockDeleteRemote,
		},
		{
			name: "封禁但已落墓碑",
			in:   DecisionInput{Blocked: true, HasLedgerEntry: true, Tombstoned: true},
			want: DecisionBlockAlreadyTombstoned,
		},
		{
			name: "封禁且从未建档",
			in:   DecisionInput{Blocked: true},
			want: DecisionBlockLocalOnly,
		},
		{
			name: "封禁优先于人脸结论",
			in:   DecisionInput{Blocked: true, FaceAware: true, Face: FaceDuplicateBlocked},
			want: DecisionBlockLocalOnly,
		},
		{
			name: "未检出人脸",
			in:   DecisionInput{FaceAware: true, Face: FaceMissing},
			want: DecisionRejectNoFace,
		},
		{
			name: "人脸命中已封禁身份",
			in:   DecisionInput{FaceAware: true, Face: FaceDuplicateBlocked},
			want: DecisionRejectDuplicateBlocked,
		},
		{
			name: "人脸命中存活身份",
			in:   DecisionInput{FaceAware: true, Face: FaceDuplicateActive, MatchedHasLiveRemoteID: true},
			want: DecisionUpdateDuplicateActive,
		},
		{
			name: "人脸命中但命中者无存活远端身份则落到建档",
			in:   DecisionInput{FaceAware: true, Face: FaceDuplicateActive},
			want: DecisionCreateNew,
		},
		{
			name: "台账已有存活身份且来窗扩展",
			in:   DecisionInput{HasLedgerEntry: true, HasLiveRemoteID: true, WindowExtends: true},
			want: DecisionUpdateExisting,
		},
		{
			name: "人脸变体下重放也走更新",
			in:   DecisionInput{FaceAware: true, HasLedgerEntry: true, HasLiveRemoteID: true},
			want: DecisionUpdateExisting,
		},
		{
			name: "非人脸变体幂等短路",
			in:   DecisionInput{HasLedgerEntry: true, HasLiveRemoteID: true},
			want: DecisionAlreadyProcessed,
		},
		{
			name: "全新工人",
			in:   DecisionInput{},
			want: DecisionCreateNew,
		},
		{
			name: "墓碑工人解禁后重新建档",
			in:   DecisionInput{HasLedgerEntry: true, Tombstoned: true},
			want: DecisionCreateNew,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.in); got.Kind != tt.want {
				t.Errorf("决策错误: got=%d want=%d", got.Kind, tt.want)
			}
		})
	}
}

// ── 有效期合并 ──

func TestMergeWindow(t *testing.T) {
	tests := []struct {
		name                     string
		existFrom, existTo       string
		inFrom, inTo             string
		wantFrom, wantTo         string
	}{
		{"来窗整体靠后", "2025-01-01", "2025-06-30", "2025-03-01", "2025-12-31", "2025-01-01", "2025-12-31"},
		{"来窗整体靠前", "2025-03-01", "2025-12-31", "2025-01-01", "2025-06-30", "2025-01-01", "2025-12-31"},
		{"短窗不收缩长窗", "2025-01-01", "2025-12-31", "2025-05-01", "2025-06-01", "2025-01-01", "2025-12-31"},
		{"空值让位非空", "", "", "2025-01-01", "2025-12-31", "2025-01-01", "2025-12-31"},
		{"来窗为空保留已存", "2025-01-01", "2025-12-31", "", "", "2025-01-01", "2025-12-31"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := mergeWindow(tt.existFrom, tt.existTo, tt.inFrom, tt.inTo)
			if from != tt.wantFrom || to != tt.wantTo {
				t.Errorf("合并结果错误: got=(%s,%s) want=(%s,%s)", from, to, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestMergeWindowCommutative(t *testing.T) {
	// 合并满足交换律：先短后长与先长后短结果一致
	f1, t1 := mergeWindow("2025-01-01", "2025-06-30", "2025-03-01", "2025-12-31")
	f2, t2 := mergeWindow("2025-03-01", "2025-12-31", "2025-01-01", "2025-06-30")
	if f1 != f2 || t1 != t2 {
		t.Errorf("合并不满足交换律: (%s,%s) vs (%s,%s)", f1, t1, f2, t2)
	}
}

func TestWindowExtends(t *testing.T) {
	if windowExtends("2025-01-01", "2025-12-31", "2025-03-01", "2025-06-30") {
		t.Error("被包含的来窗不应视为扩展")
	}
	if !windowExtends("2025-01-01", "2025-06-30", "2025-01-01", "2025-12-31") {
		t.Error("validTo 越界应视为扩展")
	}
	if !windowExtends("2025-03-01", "2025-12-31", "2025-01-01", "2025-12-31") {
		t.Error("validFrom 越界应视为扩展")
	}
	if windowExtends("2025-01-01", "2025-12-31", "2025-01-01", "2025-12-31") {
		t.Error("相同窗口不应视为扩展")
	}
}

// [自证通过] internal/service/decision_test.go
