package prompts

// プロンプトの固定文言ブロック。生成結果の再現性のため、文言の変更はテストの
// 期待値と合わせて行うこと。
const (
	// 画布規格（判型×ページ形態から決まるアスペクト指示）
	aspectPortrait  = "【画布规格】标准单页漫画，PORTRAIT 纵向构图，宽高比 2:3。"
	aspectLandscape = "【画布规格】双页跨页漫画，LANDSCAPE 横向构图，宽高比 3:2。"
	aspectWebtoon   = "【画布规格】条漫（webtoon）竖向长条画布，自上而下连续阅读，高度不设硬性限制。"

	// 主任務指示
	taskSinglePage = "【任务】请绘制一张完整的单页漫画，按下述布局切分画格，保持专业漫画的分镜节奏。"
	taskSpread     = "【任务】请绘制一幅跨页大画面（double-page spread），两页作为一个整体构图，气势优先。"
	taskWebtoon    = "【任务】请绘制一段竖向滚动阅读的条漫，画格沿竖直方向依次排列，引导视线自上而下流动。"

	// 色彩指示
	colorBW    = "【色彩】整页必须为黑白漫画：只使用黑白线稿与网点（screen tone）表现明暗，禁止出现任何彩色。"
	colorColor = "【色彩】整页为鲜艳的全彩漫画，色彩饱满、光影层次分明。"

	// 文字禁止指示（吹き出しは空のまま）
	noTextDirective = "【文字】画面中不得出现任何文字、标题或拟声词（SFX）；所有对话气泡一律保持空白。"

	// 参考表ヘッダと、出場エンティティが空のときのプレースホルダ
	castSheetHeader = "【角色与物品参考表】"
	noReference     = "本次生成未提供任何参考图。"

	// 末尾の自己点検文
	selfCheck = "完成前请自查：画格数量、各格出场角色与参考图编号必须与上述要求一一对应。"
)
