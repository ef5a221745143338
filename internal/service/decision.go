package service

// 对账决策表：显式有序变体匹配，自上而下第一条命中即生效。
// 决策本身不做任何 I/O，台账/人脸查重结果由调用方预先装配进 DecisionInput，
// 便于脱离网络与数据库单独验证优先级。

// DecisionKind 决策变体
type DecisionKind int

const (
	// DecisionBlockDeleteRemote 封禁且持有存活远端身份：删除远端人员并落墓碑
	DecisionBlockDeleteRemote DecisionKind = iota
	// DecisionBlockAlreadyTombstoned 封禁但已是墓碑：仅回报状态，避免重复删除
	DecisionBlockAlreadyTombstoned
	// DecisionBlockLocalOnly 封禁且从未建档：直接落本地墓碑
	DecisionBlockLocalOnly
	// DecisionRejectNoFace 未检出人脸：终态拒绝，不建档
	DecisionRejectNoFace
	// DecisionRejectDuplicateBlocked 人脸命中已封禁身份：终态拒绝
	DecisionRejectDuplicateBlocked
	// DecisionUpdateDuplicateActive 人脸命中存活身份：按命中身份走更新
	DecisionUpdateDuplicateActive
	// DecisionUpdateExisting 台账已有存活远端身份：更新档案并合并有效期
	DecisionUpdateExisting
	// DecisionCreateNew 新建远端身份
	DecisionCreateNew
	// DecisionAlreadyProcessed 幂等短路（仅非人脸变体）：无任何动作
	DecisionAlreadyProcessed
)

// FaceOutcome 人脸查重结论（非人脸变体恒为 FaceNotChecked）
type FaceOutcome int

const (
	FaceNotChecked FaceOutcome = iota
	FaceMissing
	FaceDuplicateBlocked
	FaceDuplicateActive
)

// DecisionInput 决策所需的全部事实
type DecisionInput struct {
	Blocked bool

	HasLedgerEntry  bool
	HasLiveRemoteID bool // 台账记录持有 remotePersonId 且未落墓碑
	Tombstoned      bool

	FaceAware              bool
	Face                   FaceOutcome
	MatchedHasLiveRemoteID bool // 仅 FaceDuplicateActive 时有意义

	// 来窗是否扩展了台账中已合并的有效期（任一端越界即为 true）
	WindowExtends bool
}

// Decision 决策结果
type Decision struct {
	Kind DecisionKind
}

// Decide 按决策表顺序求值，返回第一条命中的变体
func Decide(in DecisionInput) Decision {
	// ── 封禁分支 ──
	if in.Blocked {
		switch {
		case in.HasLiveRemoteID:
			return Decision{Kind: DecisionBlockDeleteRemote}
		case in.Tombstoned:
			return Decision{Kind: DecisionBlockAlreadyTombstoned}
		default:
			return Decision{Kind: DecisionBlockLocalOnly}
		}
	}

	// ── 人脸分支（仅人脸变体）──
	if in.FaceAware {
		switch in.Face {
		case FaceMissing:
			return Decision{Kind: DecisionRejectNoFace}
		case FaceDuplicateBlocked:
			return Decision{Kind: DecisionRejectDuplicateBlocked}
		case FaceDuplicateActive:
			if in.MatchedHasLiveRemoteID {
				return Decision{Kind: DecisionUpdateDuplicateActive}
			}
			// 命中者无存活远端身份：继续按台账状态决策
		}
	}

	// ── 建档/更新分支 ──
	if in.HasLedgerEntry && in.HasLiveRemoteID {
		if !in.FaceAware && !in.WindowExtends {
			// 非人脸变体的幂等短路：重放同一快照不产生远端调用
			return Decision{Kind: DecisionAlreadyProcessed}
		}
		return Decision{Kind: DecisionUpdateExisting}
	}

	return Decision{Kind: DecisionCreateNew}
}

// ── 有效期合并 ──

// mergeWindow 合并有效期窗口：validFrom 取最小、validTo 取最大
// 后到的短窗不得收缩已授予的长窗；空值让位于非空值
func mergeWindow(existingFrom, existingTo, incomingFrom, incomingTo string) (string, string) {
	return minDate(existingFrom, incomingFrom), maxDate(existingTo, incomingTo)
}

// windowExtends 来窗是否在任一端超出已存窗口
func windowExtends(existingFrom, existingTo, incomingFrom, incomingTo string) bool {
	from, to := mergeWindow(existingFrom, existingTo, incomingFrom, incomingTo)
	return from != existingFrom || to != existingTo
}

// 日期为 YYYY-MM-DD 字符串，字典序即时间序

func minDate(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if b < a {
		return b
	}
	return a
}

func maxDate(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if b > a {
		return b
	}
	return a
}

// [自证通过] internal/service/decision.go
