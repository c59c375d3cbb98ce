package geo

// 县市代码（内政部 COUNTYCODE），以字母别名对应县市英文代号
const (
	RegionAll = "ALL"

	RegionA = "63000" // 臺北市
	RegionB = "66000" // 臺中市
	RegionC = "10017" // 基隆市
	RegionD = "67000" // 臺南市
	RegionE = "64000" // 高雄市
	RegionF = "65000" // 新北市
	RegionG = "10002" // 宜蘭縣
	RegionH = "68000" // 桃園市
	RegionI = "10020" // 嘉義市
	RegionJ = "10004" // 新竹縣
	RegionK = "10005" // 苗栗縣
	RegionM = "10008" // 南投縣
	RegionN = "10007" // 彰化縣
	RegionO = "10018" // 新竹市
	RegionP = "10009" // 雲林縣
	RegionQ = "10010" // 嘉義縣
	RegionT = "10013" // 屏東縣
	RegionU = "10015" // 花蓮縣
	RegionV = "10014" // 臺東縣
	RegionW = "09020" // 金門縣
	RegionX = "10016" // 澎湖縣
	RegionZ = "09007" // 連江縣
)

// DistrictAll：乡镇层级“全部”哨兵值
const DistrictAll = "ALL"

// IsAll：空值与哨兵值同等视为“全部”
func IsAll(code string) bool { return code == "" || code == RegionAll }
