package election

import "math"

// ColorMap：行政区代码到填充色
type ColorMap map[string]string

// 文档注释：着色表
// 背景：每个行政区取得票最多的候选人，以其推荐政党的代表色着色。
// 约束：得票相同取先出现者；缺失票数视为负无穷；无候选人得票的行政区跳过；号次找不到或政党未知时颜色为空串。
func ColorConfig(info *ElectionInfo) ColorMap {
	out := ColorMap{}
	if info == nil {
		return out
	}
	for _, item := range info.AdminCollection {
		winner, ok := Winner(item.CandidatesVotes)
		if !ok {
			continue
		}
		out[item.AdminCode] = PartyColor(partyOf(info.Candidates, winner.No))
	}
	return out
}

// Winner：票数严格最大的候选人；空列表返回 false
func Winner(votes []CandidateVote) (CandidateVote, bool) {
	if len(votes) == 0 {
		return CandidateVote{}, false
	}
	best := votes[0]
	for _, v := range votes[1:] {
		if count(v) > count(best) {
			best = v
		}
	}
	return best, true
}

func count(v CandidateVote) float64 {
	if v.VoteCount == nil {
		return math.Inf(-1)
	}
	return *v.VoteCount
}

func partyOf(cands []CandidatePair, no *int) string {
	if no == nil {
		return ""
	}
	for _, c := range cands {
		if c.No != nil && *c.No == *no {
			return c.Party
		}
	}
	return ""
}

// Merge：在 base 之上覆盖 next，返回新表，两者均不修改
func Merge(base, next ColorMap) ColorMap {
	out := make(ColorMap, len(base)+len(next))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range next {
		out[k] = v
	}
	return out
}
