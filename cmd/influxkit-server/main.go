package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"influxkit/infrastructure/web"
	"influxkit/server/controller/query"
)

func main() {
	loadConfig()
	web.AddController(query.New(Conf.Registry))
	var g errgroup.Group
	g.Go(runWebServer)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	fmt.Println("stop server")
}

func runWebServer() error {
	conf := Conf
	fmt.Printf("start web on :%d\n", conf.Port)
	router := web.CreateRouter(conf.Debug, &conf.Cors, conf.EnableGzip)
	for _, controller := range web.Controllers {
		controller.Init(router)
	}
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(conf.Port),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		ReadTimeout:       200 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return server.ListenAndServe()
}
