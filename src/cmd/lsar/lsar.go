package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kingpin"

	"github.com/alley-rs/lsar/src/configs"
	"github.com/alley-rs/lsar/src/consts"
	"github.com/alley-rs/lsar/src/dispatch"
	"github.com/alley-rs/lsar/src/history"
	"github.com/alley-rs/lsar/src/live"
	_ "github.com/alley-rs/lsar/src/live/bilibili"
	_ "github.com/alley-rs/lsar/src/live/douyin"
	_ "github.com/alley-rs/lsar/src/live/douyu"
	_ "github.com/alley-rs/lsar/src/live/huya"
	"github.com/alley-rs/lsar/src/log"
	"github.com/alley-rs/lsar/src/types"
)

var (
	app = kingpin.New(consts.AppName, "直播间直链解析工具")

	conf  = app.Flag("config", "配置文件路径").Short('c').Default(defaultConfigPath()).String()
	debug = app.Flag("debug", "输出调试日志").Bool()

	parseCmd     = app.Command("parse", "解析直播间直链").Default()
	parsePlat    = parseCmd.Arg("platform", "平台：douyu | huya | bilibili | douyin").Required().String()
	parseInput   = parseCmd.Arg("input", "房间号或直播间链接").Required().String()
	parsePlay    = parseCmd.Flag("play", "解析成功后用配置的播放器打开第一条直链").Bool()
	parseAsJSON  = parseCmd.Flag("json", "以 JSON 输出完整结果").Bool()
	historyCmd   = app.Command("history", "查看播放历史")
	historyDelID = historyCmd.Flag("delete", "删除指定 id 的历史记录").Int64()
)

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, consts.AppName, "config.yaml")
}

func main() {
	app.Version(consts.AppVersion)
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	config, err := configs.NewConfigWithFile(*conf)
	if err != nil {
		app.Fatalf("读取配置失败：%v", err)
	}
	if *debug {
		config.Debug = true
	}
	if err := config.Verify(); err != nil {
		app.Fatalf("配置不合法：%v", err)
	}

	logger := log.New(config)
	info := consts.GetAppInfo()
	logger.WithFields(map[string]interface{}{
		"version":    info.AppVersion,
		"git_hash":   info.GitHash,
		"build_time": info.BuildTime,
	}).Debug(consts.AppName)

	switch command {
	case parseCmd.FullCommand():
		runParse(config)
	case historyCmd.FullCommand():
		runHistory(config)
	}
}

func runParse(config *configs.Config) {
	platform, err := types.Parse(*parsePlat)
	if err != nil {
		app.Fatalf("%v", err)
	}

	d := dispatch.New(config)
	result := d.Dispatch(platform, *parseInput)

	if *parseAsJSON {
		b, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			app.Fatalf("序列化结果失败：%v", err)
		}
		fmt.Println(string(b))
	} else if result.OK() {
		printParsed(result.Parsed)
	} else {
		fmt.Println(result.Message)
	}

	if !result.OK() {
		os.Exit(1)
	}

	recordHistory(config, result.Parsed)

	if *parsePlay {
		// 直链是一次性的，交给播放器的这条就算消耗掉了
		if err := config.Play(result.Parsed.Links[0]); err != nil {
			log.GetLogger().Errorf("启动播放器失败：%v", err)
			os.Exit(1)
		}
	}
}

func printParsed(parsed *live.ParsedResult) {
	entry, _ := live.GetEntry(parsed.Platform)
	label := parsed.Platform.String()
	if entry != nil {
		label = entry.Label
	}
	fmt.Printf("%s %d  %s\n", label, parsed.RoomID, parsed.Anchor)
	fmt.Printf("%s", parsed.Title)
	if parsed.Category != "" {
		fmt.Printf("（%s）", parsed.Category)
	}
	fmt.Println()
	for i, link := range parsed.Links {
		fmt.Printf("%2d. %s\n", i+1, link)
	}
}

func recordHistory(config *configs.Config, parsed *live.ParsedResult) {
	if config.History.Path == "" {
		return
	}
	store, err := history.NewStore(config.History.Path)
	if err != nil {
		log.GetLogger().Warnf("打开历史数据库失败：%v", err)
		return
	}
	defer store.Close()

	err = store.Upsert(context.Background(), &history.Item{
		Platform:     parsed.Platform,
		RoomID:       parsed.RoomID,
		Anchor:       parsed.Anchor,
		Category:     parsed.Category,
		LastTitle:    parsed.Title,
		LastPlayTime: time.Now(),
	})
	if err != nil {
		log.GetLogger().Warnf("写入历史记录失败：%v", err)
	}
}

func runHistory(config *configs.Config) {
	if config.History.Path == "" {
		app.Fatalf("未配置历史数据库路径")
	}
	store, err := history.NewStore(config.History.Path)
	if err != nil {
		app.Fatalf("打开历史数据库失败：%v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if *historyDelID != 0 {
		if err := store.Delete(ctx, *historyDelID); err != nil {
			app.Fatalf("删除历史记录失败：%v", err)
		}
		return
	}

	items, err := store.List(ctx)
	if err != nil {
		app.Fatalf("读取历史记录失败：%v", err)
	}
	for _, item := range items {
		fmt.Printf("%d\t%s\t%d\t%s\t%s\t%s\n",
			item.ID, item.Platform, item.RoomID, item.Anchor, item.LastTitle,
			item.LastPlayTime.Format("2006-01-02 15:04:05"))
	}
}
