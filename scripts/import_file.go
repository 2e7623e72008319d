// 命令行批量导入脚本
//
// 读取本地原始文本文件，走解析 -> 校验 -> 入库完整流水线，
// 用于首次部署时批量灌入题库，不经过 HTTP 层。
//
// 用法: go run scripts/import_file.go -file paper.txt -title "Ocean Life" -user 1

package main

import (
	"context"
	"flag"
	"log"
	"os"

	"ielts_edu_backend/internal/config"
	"ielts_edu_backend/internal/importer"
	"ielts_edu_backend/internal/repository"
	"ielts_edu_backend/internal/service"
	"ielts_edu_backend/pkg/database"
	"ielts_edu_backend/pkg/logger"
)

func main() {
	file := flag.String("file", "", "原始文本文件路径")
	title := flag.String("title", "", "试卷标题")
	kind := flag.String("kind", "reading", "reading | listening")
	userID := flag.Uint("user", 0, "操作人用户ID")
	flag.Parse()

	if *file == "" || *title == "" {
		log.Fatal("用法: go run scripts/import_file.go -file paper.txt -title \"Ocean Life\" -user 1")
	}

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("无法读取文件: %v", err)
	}

	svc := service.NewImportService(
		repository.NewReadingRepository(db),
		repository.NewListeningRepository(db),
		repository.NewImportLogRepository(db),
	)

	progress := func(inserted, total int) {
		log.Printf("进度 %d/%d", inserted, total)
	}

	ctx := context.Background()
	switch *kind {
	case "listening":
		draft := importer.ParseListening(string(raw))
		draft.Title = *title
		result, err := svc.ImportListening(ctx, *userID, draft, progress)
		if err != nil {
			log.Fatalf("导入失败: %v", err)
		}
		log.Printf("完成！测试ID=%d 题目数=%d", result.PaperID, result.QuestionCount)
	default:
		draft := importer.Parse(string(raw))
		draft.Title = *title
		result, err := svc.ImportReading(ctx, *userID, draft, progress)
		if err != nil {
			log.Fatalf("导入失败: %v", err)
		}
		log.Printf("完成！试卷ID=%d 题目数=%d", result.PaperID, result.QuestionCount)
	}
}
