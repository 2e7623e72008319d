package util

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// AudioInfo 听力音频元数据
type AudioInfo struct {
	Duration float64 `json:"duration"` // 秒
	Format   string  `json:"format"`
	Bitrate  int64   `json:"bitrate"`
	Size     int64   `json:"size"`
}

// GetAudioInfo 用 ffprobe 探测音频时长与格式，供听力试卷上传用
func GetAudioInfo(audioPath string) (*AudioInfo, error) {
	fileInfo, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("音频文件不存在: %v", err)
	}

	jsonOutput, err := ffmpeg.Probe(audioPath)
	if err != nil {
		return nil, fmt.Errorf("获取音频信息失败: %v", err)
	}

	var result struct {
		Format struct {
			Duration string `json:"duration"`
			Format   string `json:"format_name"`
			Bitrate  string `json:"bit_rate"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(jsonOutput), &result); err != nil {
		return nil, fmt.Errorf("解析音频信息失败: %v", err)
	}

	duration, _ := strconv.ParseFloat(result.Format.Duration, 64)
	bitrate, _ := strconv.ParseInt(result.Format.Bitrate, 10, 64)

	return &AudioInfo{
		Duration: duration,
		Format:   result.Format.Format,
		Bitrate:  bitrate,
		Size:     fileInfo.Size(),
	}, nil
}
