package core

// NeighborIndex 是近似最近邻索引的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（index）实现
//   - 只读：索引离线构建，服务期只做查询
//   - 以稠密下标（dense index）寻址，与商品 ID 的映射由 catalog 负责
//
// 实现：
//   - index.Annoy 读取 Annoy 导出的 .ann 文件
//   - index.Flat 是内存精确检索，用于测试/小规模目录
type NeighborIndex interface {
	// Len 返回索引中的条目数，合法下标为 [0, Len())
	Len() int

	// Dimension 返回向量维度
	Dimension() int

	// NearestByItem 返回与下标 idx 最近的 n 个下标（通常包含 idx 自身），按距离升序
	NearestByItem(idx, n int) []int

	// NearestByVector 返回与向量 v 最近的 n 个下标，按距离升序
	NearestByVector(v []float32, n int) []int
}

// Index 错误定义
var (
	ErrIndexDimension = NewDomainError(ModuleIndex, ErrorCodeInvalidInput, "index: vector dimension mismatch")
	ErrIndexCorrupt   = NewDomainError(ModuleIndex, ErrorCodeInvalidInput, "index: corrupt or truncated index file")
)
