package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-comic-studio/pkg/domain"
)

// BuildReferencePrompt は、新規エンティティの参照画像（設定画）を生成するための
// プロンプトを編纂します。Compile と同じく純関数で、同一入力から同一文字列を返します。
func BuildReferencePrompt(kind domain.EntityKind, name, corePrompt string, project domain.Project) string {
	var sb strings.Builder
	if kind == domain.KindAsset {
		sb.WriteString(fmt.Sprintf("【任务】为漫画道具 %q 绘制一张物品设定参考图：单一物品居中，纯白背景，必要时附剖面或细节放大。", name))
	} else {
		sb.WriteString(fmt.Sprintf("【任务】为漫画角色 %q 绘制一张角色设定参考图（character design sheet）：全身正面站姿为主，旁附侧面与表情小图，纯白背景。", name))
	}
	if corePrompt != "" {
		sb.WriteString(fmt.Sprintf(" 【核心特征】%s。", corePrompt))
	}
	if project.StylePrompt != "" {
		sb.WriteString(fmt.Sprintf(" 【画风】%s。", project.StylePrompt))
	}
	sb.WriteString(" ")
	sb.WriteString(noTextDirective)

	return strings.Join(strings.Fields(sb.String()), " ")
}
