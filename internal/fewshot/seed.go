package fewshot

import (
	"context"

	"github.com/ziadkadry99/queryflow/internal/schema"
)

// SeedExamples returns the built-in labeled corpus used when no
// persisted store exists yet.
func SeedExamples() []Example {
	return []Example{
		{ID: "seed-1", Query: "查询浙江各地市到省外的流量", PrimaryScene: schema.SceneFlow, SecondaryScene: schema.SceneRegion, ThirdScene: schema.ThirdCity},
		{ID: "seed-2", Query: "查询杭州到宁波近一周的流量峰值", PrimaryScene: schema.SceneFlow, SecondaryScene: schema.SceneRegion, ThirdScene: schema.ThirdCity},
		{ID: "seed-3", Query: "查询省际出口近一个月的流量趋势", PrimaryScene: schema.SceneFlow, SecondaryScene: schema.SceneRegion, ThirdScene: schema.ThirdInterProvince},
		{ID: "seed-4", Query: "查询1.2.3.4到8.8.8.8的流量", PrimaryScene: schema.SceneFlow, SecondaryScene: schema.SceneIPTraff, ThirdScene: schema.ThirdIP},
		{ID: "seed-5", Query: "查询10.0.0.0/8网段的流量情况", PrimaryScene: schema.SceneFlow, SecondaryScene: schema.SceneIPTraff, ThirdScene: schema.ThirdSubnet},
		{ID: "seed-6", Query: "查询80端口的路由详情", PrimaryScene: schema.SceneFlow, SecondaryScene: schema.SceneIPTraff, ThirdScene: schema.ThirdPort},
		{ID: "seed-7", Query: "查询【气象局】客户的流量", PrimaryScene: schema.SceneFlow, SecondaryScene: schema.SceneCustomer, ThirdScene: schema.ThirdCustomer},
		{ID: "seed-8", Query: "查询账号A12345的上行流量", PrimaryScene: schema.SceneFlow, SecondaryScene: schema.SceneCustomer, ThirdScene: schema.ThirdAccount},
		{ID: "seed-9", Query: "查询pcdn拉流异常的IP清单", PrimaryScene: schema.SceneAnomaly, SecondaryScene: schema.SceneIPTraff, ThirdScene: schema.ThirdIP},
		{ID: "seed-10", Query: "查询各业务类型的流量占比", PrimaryScene: schema.SceneComposition, SecondaryScene: schema.SceneRegion, ThirdScene: schema.ThirdCity},
	}
}

// Seed loads the built-in corpus into an empty store. Non-empty stores
// are left alone.
func (s *Store) Seed(ctx context.Context) error {
	if s.Count() > 0 {
		return nil
	}
	return s.Add(ctx, SeedExamples())
}
