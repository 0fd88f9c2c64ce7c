// 基于connect的RPC工具：JSON编解码与多过程路由
package rpcutil

import (
	"encoding/json"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// JSONCodec 使用encoding/json的connect编解码器
// 说明：服务的请求与响应都是普通Go结构体，不依赖protobuf生成代码；
// 注册名为"json"，覆盖connect默认的protojson编解码器
type JSONCodec struct{}

var _ connect.Codec = JSONCodec{}

// Name 编解码器名称，对应Content-Type: application/json
func (JSONCodec) Name() string {
	return "json"
}

// Marshal 序列化
func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal 反序列化
func (JSONCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// Service 将多个connect过程组合为一个服务
// 功能：为每个过程挂载handler，返回服务路径前缀与组合后的http.Handler
type Service struct {
	name string
	mux  *http.ServeMux
}

// NewService 创建服务
// 参数：name-服务全名（如intersection.v1.IntersectionService）
func NewService(name string) *Service {
	return &Service{name: name, mux: http.NewServeMux()}
}

// Procedure 获取过程的完整路径
func (s *Service) Procedure(method string) string {
	return "/" + s.name + "/" + method
}

// Handle 挂载一个过程
func (s *Service) Handle(procedure string, h http.Handler) {
	if !strings.HasPrefix(procedure, s.Pattern()) {
		log.Panicf("procedure %s does not belong to service %s", procedure, s.name)
	}
	s.mux.Handle(procedure, h)
}

// Pattern 服务路径前缀
func (s *Service) Pattern() string {
	return "/" + s.name + "/"
}

// Handler 组合后的http.Handler
func (s *Service) Handler() http.Handler {
	return s.mux
}

// HandlerOptions 在外部传入的选项后追加JSON编解码器
func HandlerOptions(opts ...connect.HandlerOption) []connect.HandlerOption {
	return append(opts, connect.WithCodec(JSONCodec{}))
}

// ClientOptions 客户端选项，使用JSON编解码器
func ClientOptions(opts ...connect.ClientOption) []connect.ClientOption {
	return append(opts, connect.WithCodec(JSONCodec{}))
}
