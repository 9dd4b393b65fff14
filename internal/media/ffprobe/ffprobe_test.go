package ffprobe

import (
	"encoding/json"
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio"},
			{CodecType: "video", Width: 1920, Height: 1080},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
		},
	}
	stream, ok := result.FirstVideoStream()
	if !ok {
		t.Fatal("expected a video stream")
	}
	if stream.Width != 1920 || stream.Height != 1080 {
		t.Fatalf("unexpected video stream %+v", stream)
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if _, ok := result.FirstVideoStream(); ok {
		t.Fatal("expected no video stream")
	}
}

func TestStreamDecodesColorAndSideData(t *testing.T) {
	payload := `{
		"streams": [{
			"index": 0,
			"codec_name": "hevc",
			"codec_type": "video",
			"color_transfer": "smpte2084",
			"sample_aspect_ratio": "1:1",
			"display_aspect_ratio": "16:9",
			"avg_frame_rate": "24000/1001",
			"side_data_list": [{"side_data_type": "DOVI configuration record"}]
		}],
		"format": {"duration": "5400.5"}
	}`
	var result Result
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	stream, ok := result.FirstVideoStream()
	if !ok {
		t.Fatal("expected a video stream")
	}
	if stream.ColorTransfer != "smpte2084" {
		t.Fatalf("unexpected color transfer %q", stream.ColorTransfer)
	}
	if stream.AvgFrameRate != "24000/1001" {
		t.Fatalf("unexpected frame rate %q", stream.AvgFrameRate)
	}
	if len(stream.SideDataList) != 1 || stream.SideDataList[0].SideDataType != "DOVI configuration record" {
		t.Fatalf("unexpected side data %+v", stream.SideDataList)
	}
}
