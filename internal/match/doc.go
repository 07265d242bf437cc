// Package match 按文件名相似度把视频与字幕一一配对。
//
// 流程固定且可解释：
//   - 只保留调用时存在的普通文件，按扩展名分成视频/字幕两组（保持输入顺序）
//   - 逐个视频贪心地挑选尚未被使用、得分最高且超过阈值的字幕
//   - 未被使用的字幕单独输出
//
// 这里不做全局最优分配：同样的输入永远得到同样的结果，且可以逐条解释。
package match
