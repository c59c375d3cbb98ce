// 包 election：选举结果数据模型与地图着色表计算
package election

import (
	"encoding/json"
	"fmt"
	"io"
)

// CandidatePair：正副总统候选人组合
type CandidatePair struct {
	No            *int   `json:"NO"`
	Party         string `json:"PARTY"`
	President     string `json:"PRESIDENT"`
	VicePresident string `json:"VICE_PRESIDENT"`
}

// CandidateVote：候选人得票；缺失值为 nil
type CandidateVote struct {
	No        *int     `json:"NO"`
	VoteCount *float64 `json:"VOTE_COUNT"`
}

// VotingStatistics：投票统计
type VotingStatistics struct {
	CandidatesVotes    []CandidateVote `json:"CANDIDATES_VOTES"`
	ValidVotes         *float64        `json:"VALID_VOTES"`
	InvalidVotes       *float64        `json:"INVALID_VOTES"`
	TotalVotes         *float64        `json:"TOTAL_VOTES"`
	UnreturnedBallots  *float64        `json:"UNRETURNED_BALLOTS"`
	TotalIssuedBallots *float64        `json:"TOTAL_ISSUED_BALLOTS"`
	UnusedBallots      *float64        `json:"UNUSED_BALLOTS"`
	EligibleVoters     *float64        `json:"ELIGIBLE_VOTERS"`
	TurnoutRate        *float64        `json:"TURNOUT_RATE"`
}

// AdminCollection：单个行政区的统计
type AdminCollection struct {
	VotingStatistics
	AdminLevel string `json:"ADMIN_LEVEL"`
	AdminName  string `json:"ADMIN_NAME"`
	AdminCode  string `json:"ADMIN_CODE"`
}

// 文档注释：一次选举在某层级的结果
// 背景：全国结果的 ADMIN_COLLECTION 为各县市，县市结果的 ADMIN_COLLECTION 为各乡镇；两者的 ADMIN_CODE 分别与县市代码、乡镇代码一致。
type ElectionInfo struct {
	Title           string            `json:"ELECTION_TITLE"`
	Term            *int              `json:"ELECTION_TERM"`
	GregorianYear   string            `json:"ELECTION_GREGORIAN_YEAR"`
	Candidates      []CandidatePair   `json:"CANDIDATES"`
	TotalStatistics AdminCollection   `json:"TOTAL_STATISTICS"`
	AdminCollection []AdminCollection `json:"ADMIN_COLLECTION"`
}

// Decode：解析 ElectionInfo JSON
func Decode(r io.Reader) (*ElectionInfo, error) {
	var info ElectionInfo
	if err := json.NewDecoder(r).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode election info: %w", err)
	}
	return &info, nil
}

// 总统直选自 1996 年起每四年一次
const (
	FirstYear = 1996
	LastYear  = 2024
)

// Years：全部选举年份（西元），由旧到新
func Years() []string {
	var out []string
	for y := FirstYear; y <= LastYear; y += 4 {
		out = append(out, fmt.Sprint(y))
	}
	return out
}

// LatestYear：最近一次选举年份
func LatestYear() string { return fmt.Sprint(LastYear) }

// ValidYear：是否为已举行的选举年份
func ValidYear(year string) bool {
	for _, y := range Years() {
		if y == year {
			return true
		}
	}
	return false
}
