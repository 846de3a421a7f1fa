// Package schema holds the fixed vocabulary of the resolver: the scene
// taxonomy, the twelve attribute slots with their defaults and validity
// predicates, and the shared keyword/token helpers the classifiers and
// extractors build on.
package schema

// Primary scenes (broad analytic category).
const (
	SceneFlow        = "流量流向分析"
	SceneComposition = "流量成分分析"
	SceneAnomaly     = "异常流量分析"
)

// Secondary scenes (sub-category within a primary scene).
const (
	SceneRegion   = "地域流量分析"
	SceneIPTraff  = "IP流量分析"
	SceneCustomer = "客户流量分析"
)

// Third-level scenes (specific query pattern).
const (
	ThirdIP            = "IP"
	ThirdPort          = "端口"
	ThirdSubnet        = "网段"
	ThirdRouter        = "路由器"
	ThirdCRRouter      = "CR路由器"
	ThirdCustomer      = "客户"
	ThirdAccount       = "账号"
	ThirdCity          = "地市"
	ThirdInterProvince = "省际"
	ThirdOutProvince   = "省外"
	ThirdInProvince    = "省内"
	ThirdCrossProvince = "跨省"
)

// PrimaryScenes is the closed vocabulary for level one.
var PrimaryScenes = []string{SceneFlow, SceneComposition, SceneAnomaly}

// SecondaryScenes is the closed vocabulary for level two.
var SecondaryScenes = []string{SceneRegion, SceneIPTraff, SceneCustomer}

// ThirdScenes is the closed vocabulary for level three.
var ThirdScenes = []string{
	ThirdIP, ThirdPort, ThirdSubnet, ThirdRouter, ThirdCRRouter,
	ThirdCustomer, ThirdAccount, ThirdCity, ThirdInterProvince,
	ThirdOutProvince, ThirdInProvince, ThirdCrossProvince,
}

// RelatedThirdScenes maps each secondary scene to the third-level labels
// that plausibly refine it. Used as a score boost when rules find no
// direct signal.
var RelatedThirdScenes = map[string][]string{
	SceneRegion:   {ThirdCity, ThirdInterProvince, ThirdOutProvince, ThirdInProvince, ThirdCrossProvince},
	SceneIPTraff:  {ThirdIP, ThirdPort, ThirdSubnet, ThirdRouter, ThirdCRRouter},
	SceneCustomer: {ThirdCustomer, ThirdAccount},
}

// DefaultThirdScene is the fallback refinement per secondary scene when
// neither rules nor the completion service resolve level three.
var DefaultThirdScene = map[string]string{
	SceneRegion:   ThirdCity,
	SceneIPTraff:  ThirdIP,
	SceneCustomer: ThirdCustomer,
}

// ValidScene reports whether name belongs to the given closed vocabulary.
func ValidScene(name string, vocabulary []string) bool {
	for _, v := range vocabulary {
		if v == name {
			return true
		}
	}
	return false
}
