package nexus

import (
	"context"
	"net/url"

	"nexusglobal/internal/apiclient"
)

// EndpointTreeSearch - поиск по дереву партнеров.
const EndpointTreeSearch = "/api/users/tree/search"

// TreeUser - партнер в бинарном дереве.
type TreeUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Nickname  string `json:"nickname,omitempty"`
	Position  string `json:"position,omitempty"`
	Depth     int    `json:"depth"`
	ParentID  string `json:"parentId,omitempty"`
	Rank      string `json:"rank,omitempty"`
	IsActive  bool   `json:"isActive"`
}

// TreeNode - узел дерева с потомками.
type TreeNode struct {
	TreeUser
	Children []TreeNode `json:"children,omitempty"`
}

// TreeSearch - параметры поиска по дереву.
type TreeSearch struct {
	Search string
	PageQuery
}

// TeamService - команда пользователя.
type TeamService struct {
	client *apiclient.Client
}

// NewTeamService создает TeamService.
func NewTeamService(client *apiclient.Client) *TeamService {
	return &TeamService{client: client}
}

// SearchTree ищет партнеров в дереве пользователя. Порядок результатов задает бэкенд.
func (s *TeamService) SearchTree(ctx context.Context, q TreeSearch) (*Page[TreeUser], error) {
	var page Page[TreeUser]
	params := q.params(map[string]any{"search": q.Search})
	if err := s.client.Get(ctx, EndpointTreeSearch, &page, apiclient.WithParams(params)); err != nil {
		return nil, err
	}
	return &page, nil
}

// Tree возвращает поддерево с корнем userID на глубину depth.
func (s *TeamService) Tree(ctx context.Context, userID string, depth int) (*TreeNode, error) {
	if userID == "" {
		return nil, requiredError("user id")
	}

	params := map[string]any{}
	if depth > 0 {
		params["depth"] = depth
	}

	var node TreeNode
	if err := s.client.Get(ctx, "/api/users/tree/"+url.PathEscape(userID), &node, apiclient.WithParams(params)); err != nil {
		return nil, err
	}
	return &node, nil
}
