package core

// PlaceholderImage 是商品缺图时的兜底展示图。
const PlaceholderImage = "https://via.placeholder.com/300x300.png?text=No+Image"

// Product 是商品目录中的一行，加载后只读。
// Rating 是目录自带的基础评分（区别于用户评分事件），
// 源数据里可能缺失，用 HasRating 区分缺失与 0。
type Product struct {
	ID          int64   `json:"product_id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Rating      float64 `json:"rating"`
	HasRating   bool    `json:"has_rating"`
	Image       string  `json:"image,omitempty"`
	Link        string  `json:"link,omitempty"`
	Description string  `json:"description,omitempty"`
}

// ImageOrPlaceholder 返回商品图，缺图时返回占位图。
func (p Product) ImageOrPlaceholder() string {
	if p.Image == "" {
		return PlaceholderImage
	}
	return p.Image
}

// Rating 是一条用户评分事件。
// UserName 是展示名，脱敏账号的展示名含 '*'。
type Rating struct {
	UserID    int64
	UserName  string
	ProductID int64
	Score     float64
}

// Recommendation 是对外返回的一条推荐记录：候选关联目录元信息后的产物。
type Recommendation struct {
	ProductID      int64   `json:"product_id"`
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Price          float64 `json:"price"`
	EstimatedScore float64 `json:"estimated_score"`
	Image          string  `json:"image"`
	Link           string  `json:"link"`
	Description    string  `json:"description,omitempty"`
}
